package http

import (
	"net/http"

	"fintrack/internal/core"
)

// Expenses

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request, user core.User) error {
	f, err := monthFilter(r)
	if err != nil {
		return err
	}
	items, err := s.svc.Finance.ListExpenses(r.Context(), user.ID, f)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, nonNil(items))
	return nil
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request, user core.User) error {
	e, err := s.svc.Finance.GetExpense(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, e)
	return nil
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request, user core.User) error {
	var e core.Expense
	if err := decodeJSON(w, r, &e); err != nil {
		return err
	}
	created, err := s.svc.Finance.CreateExpense(r.Context(), user.ID, e)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, created)
	return nil
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request, user core.User) error {
	id := r.PathValue("id")
	e, err := s.svc.Finance.GetExpense(r.Context(), user.ID, id)
	if err != nil {
		return err
	}
	if err := decodeJSON(w, r, &e); err != nil {
		return err
	}
	e.ID = id
	updated, err := s.svc.Finance.UpdateExpense(r.Context(), user.ID, e)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, updated)
	return nil
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request, user core.User) error {
	if err := s.svc.Finance.DeleteExpense(r.Context(), user.ID, r.PathValue("id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// Incomes

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request, user core.User) error {
	f, err := monthFilter(r)
	if err != nil {
		return err
	}
	items, err := s.svc.Finance.ListIncomes(r.Context(), user.ID, f)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, nonNil(items))
	return nil
}

func (s *Server) handleGetIncome(w http.ResponseWriter, r *http.Request, user core.User) error {
	i, err := s.svc.Finance.GetIncome(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, i)
	return nil
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request, user core.User) error {
	var i core.Income
	if err := decodeJSON(w, r, &i); err != nil {
		return err
	}
	created, err := s.svc.Finance.CreateIncome(r.Context(), user.ID, i)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, created)
	return nil
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request, user core.User) error {
	id := r.PathValue("id")
	i, err := s.svc.Finance.GetIncome(r.Context(), user.ID, id)
	if err != nil {
		return err
	}
	if err := decodeJSON(w, r, &i); err != nil {
		return err
	}
	i.ID = id
	updated, err := s.svc.Finance.UpdateIncome(r.Context(), user.ID, i)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, updated)
	return nil
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request, user core.User) error {
	if err := s.svc.Finance.DeleteIncome(r.Context(), user.ID, r.PathValue("id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// nonNil renders empty listings as [] instead of null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
