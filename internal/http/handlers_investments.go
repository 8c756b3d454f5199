package http

import (
	"net/http"

	"fintrack/internal/core"
)

// Investments

func (s *Server) handleListInvestments(w http.ResponseWriter, r *http.Request, user core.User) error {
	items, err := s.svc.Finance.ListInvestments(r.Context(), user.ID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, nonNil(items))
	return nil
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request, user core.User) error {
	p, err := s.svc.Finance.Portfolio(r.Context(), user.ID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, p)
	return nil
}

func (s *Server) handleGetInvestment(w http.ResponseWriter, r *http.Request, user core.User) error {
	inv, err := s.svc.Finance.GetInvestment(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, inv)
	return nil
}

func (s *Server) handleCreateInvestment(w http.ResponseWriter, r *http.Request, user core.User) error {
	var inv core.Investment
	if err := decodeJSON(w, r, &inv); err != nil {
		return err
	}
	created, err := s.svc.Finance.CreateInvestment(r.Context(), user.ID, inv)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, created)
	return nil
}

func (s *Server) handleUpdateInvestment(w http.ResponseWriter, r *http.Request, user core.User) error {
	id := r.PathValue("id")
	inv, err := s.svc.Finance.GetInvestment(r.Context(), user.ID, id)
	if err != nil {
		return err
	}
	if err := decodeJSON(w, r, &inv); err != nil {
		return err
	}
	inv.ID = id
	updated, err := s.svc.Finance.UpdateInvestment(r.Context(), user.ID, inv)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, updated)
	return nil
}

func (s *Server) handleDeleteInvestment(w http.ResponseWriter, r *http.Request, user core.User) error {
	if err := s.svc.Finance.DeleteInvestment(r.Context(), user.ID, r.PathValue("id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// Categories

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request, user core.User) error {
	kind, err := categoryKind(r)
	if err != nil {
		return err
	}
	items, err := s.svc.Finance.ListCategories(r.Context(), user.ID, kind)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, nonNil(items))
	return nil
}

// handleCreateCategory takes the kind from the path, never from the body.
func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request, user core.User) error {
	kind, err := categoryKind(r)
	if err != nil {
		return err
	}
	var c core.Category
	if err := decodeJSON(w, r, &c); err != nil {
		return err
	}
	c.Kind = kind
	created, err := s.svc.Finance.CreateCategory(r.Context(), user.ID, c)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, created)
	return nil
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request, user core.User) error {
	kind, err := categoryKind(r)
	if err != nil {
		return err
	}
	id := r.PathValue("id")
	c, err := s.svc.Finance.GetCategory(r.Context(), user.ID, kind, id)
	if err != nil {
		return err
	}
	if err := decodeJSON(w, r, &c); err != nil {
		return err
	}
	c.ID, c.Kind = id, kind
	updated, err := s.svc.Finance.UpdateCategory(r.Context(), user.ID, c)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, updated)
	return nil
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request, user core.User) error {
	kind, err := categoryKind(r)
	if err != nil {
		return err
	}
	if err := s.svc.Finance.DeleteCategory(r.Context(), user.ID, kind, r.PathValue("id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
