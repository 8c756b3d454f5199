package http

import (
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleListPurchases(w http.ResponseWriter, r *http.Request, user core.User) error {
	items, err := s.svc.Finance.ListPurchases(r.Context(), user.ID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, nonNil(items))
	return nil
}

func (s *Server) handleGetPurchase(w http.ResponseWriter, r *http.Request, user core.User) error {
	p, err := s.svc.Finance.GetPurchase(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, p)
	return nil
}

// handleCreatePurchase schedules the installments; a client supplied
// installmentsList is ignored.
func (s *Server) handleCreatePurchase(w http.ResponseWriter, r *http.Request, user core.User) error {
	var p core.Purchase
	if err := decodeJSON(w, r, &p); err != nil {
		return err
	}
	p.InstallmentsList = nil
	created, err := s.svc.Finance.CreatePurchase(r.Context(), user.ID, p)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, created)
	return nil
}

func (s *Server) handleUpdatePurchase(w http.ResponseWriter, r *http.Request, user core.User) error {
	id := r.PathValue("id")
	p, err := s.svc.Finance.GetPurchase(r.Context(), user.ID, id)
	if err != nil {
		return err
	}
	if err := decodeJSON(w, r, &p); err != nil {
		return err
	}
	p.ID = id
	p.InstallmentsList = nil
	updated, err := s.svc.Finance.UpdatePurchase(r.Context(), user.ID, p)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, updated)
	return nil
}

func (s *Server) handleDeletePurchase(w http.ResponseWriter, r *http.Request, user core.User) error {
	if err := s.svc.Finance.DeletePurchase(r.Context(), user.ID, r.PathValue("id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
