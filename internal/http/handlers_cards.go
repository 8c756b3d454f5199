package http

import (
	"net/http"

	"fintrack/internal/core"
)

type billUpdate struct {
	IsPaid *bool `json:"isPaid"`
}

func (s *Server) handleListCreditCards(w http.ResponseWriter, r *http.Request, user core.User) error {
	cards, err := s.svc.Finance.ListCreditCards(r.Context(), user.ID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, nonNil(cards))
	return nil
}

// handleGetCreditCard returns the card with its bills.
func (s *Server) handleGetCreditCard(w http.ResponseWriter, r *http.Request, user core.User) error {
	card, err := s.svc.Finance.GetCreditCard(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, card)
	return nil
}

func (s *Server) handleCreateCreditCard(w http.ResponseWriter, r *http.Request, user core.User) error {
	var c core.CreditCard
	if err := decodeJSON(w, r, &c); err != nil {
		return err
	}
	created, err := s.svc.Finance.CreateCreditCard(r.Context(), user.ID, c)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, created)
	return nil
}

func (s *Server) handleUpdateCreditCard(w http.ResponseWriter, r *http.Request, user core.User) error {
	id := r.PathValue("id")
	c, err := s.svc.Finance.GetCreditCard(r.Context(), user.ID, id)
	if err != nil {
		return err
	}
	if err := decodeJSON(w, r, &c); err != nil {
		return err
	}
	c.ID = id
	c.Bills = nil
	updated, err := s.svc.Finance.UpdateCreditCard(r.Context(), user.ID, c)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, updated)
	return nil
}

func (s *Server) handleDeleteCreditCard(w http.ResponseWriter, r *http.Request, user core.User) error {
	if err := s.svc.Finance.DeleteCreditCard(r.Context(), user.ID, r.PathValue("id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request, user core.User) error {
	bills, err := s.svc.Finance.ListBills(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, nonNil(bills))
	return nil
}

// handleUpdateBill only toggles isPaid; totals and due dates are derived.
func (s *Server) handleUpdateBill(w http.ResponseWriter, r *http.Request, user core.User) error {
	var req billUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	if req.IsPaid == nil {
		return core.Invalid("isPaid", core.ErrValidation)
	}
	bill, err := s.svc.Finance.SetBillPaid(r.Context(), user.ID, r.PathValue("id"), *req.IsPaid)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, bill)
	return nil
}

func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request, user core.User) error {
	bill, err := s.svc.Finance.GetBill(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, bill)
	return nil
}
