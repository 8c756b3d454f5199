package http

import (
	"net/http"

	"fintrack/internal/core"
)

// Fixed expenses

func (s *Server) handleListFixedExpenses(w http.ResponseWriter, r *http.Request, user core.User) error {
	rules, err := s.svc.Finance.ListFixedExpenses(r.Context(), user.ID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, nonNil(rules))
	return nil
}

func (s *Server) handleGetFixedExpense(w http.ResponseWriter, r *http.Request, user core.User) error {
	f, err := s.svc.Finance.GetFixedExpense(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, f)
	return nil
}

func (s *Server) handleCreateFixedExpense(w http.ResponseWriter, r *http.Request, user core.User) error {
	// New rules are active unless the body says otherwise.
	f := core.FixedExpense{IsActive: true}
	if err := decodeJSON(w, r, &f); err != nil {
		return err
	}
	created, err := s.svc.Finance.CreateFixedExpense(r.Context(), user.ID, f)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, created)
	return nil
}

func (s *Server) handleUpdateFixedExpense(w http.ResponseWriter, r *http.Request, user core.User) error {
	id := r.PathValue("id")
	f, err := s.svc.Finance.GetFixedExpense(r.Context(), user.ID, id)
	if err != nil {
		return err
	}
	if err := decodeJSON(w, r, &f); err != nil {
		return err
	}
	f.ID = id
	updated, err := s.svc.Finance.UpdateFixedExpense(r.Context(), user.ID, f)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, updated)
	return nil
}

func (s *Server) handleDeleteFixedExpense(w http.ResponseWriter, r *http.Request, user core.User) error {
	if err := s.svc.Finance.DeleteFixedExpense(r.Context(), user.ID, r.PathValue("id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// Fixed incomes

func (s *Server) handleListFixedIncomes(w http.ResponseWriter, r *http.Request, user core.User) error {
	rules, err := s.svc.Finance.ListFixedIncomes(r.Context(), user.ID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, nonNil(rules))
	return nil
}

func (s *Server) handleGetFixedIncome(w http.ResponseWriter, r *http.Request, user core.User) error {
	f, err := s.svc.Finance.GetFixedIncome(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, f)
	return nil
}

func (s *Server) handleCreateFixedIncome(w http.ResponseWriter, r *http.Request, user core.User) error {
	f := core.FixedIncome{IsActive: true}
	if err := decodeJSON(w, r, &f); err != nil {
		return err
	}
	created, err := s.svc.Finance.CreateFixedIncome(r.Context(), user.ID, f)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, created)
	return nil
}

func (s *Server) handleUpdateFixedIncome(w http.ResponseWriter, r *http.Request, user core.User) error {
	id := r.PathValue("id")
	f, err := s.svc.Finance.GetFixedIncome(r.Context(), user.ID, id)
	if err != nil {
		return err
	}
	if err := decodeJSON(w, r, &f); err != nil {
		return err
	}
	f.ID = id
	updated, err := s.svc.Finance.UpdateFixedIncome(r.Context(), user.ID, f)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, updated)
	return nil
}

func (s *Server) handleDeleteFixedIncome(w http.ResponseWriter, r *http.Request, user core.User) error {
	if err := s.svc.Finance.DeleteFixedIncome(r.Context(), user.ID, r.PathValue("id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
