package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"barback/b/domain"
)

// Scheduling: managers publish the rota; staff can volunteer a shift away,
// claim a volunteered shift, or swap with a named colleague. Claims and
// swap acceptance both run the same day-conflict check.

type shiftRequest struct {
	UserID    int64  `json:"user_id" validate:"required"`
	ShiftDate string `json:"shift_date" validate:"required,datetime=2006-01-02"`
	Role      string `json:"role" validate:"required"`
}

type rotaRequest struct {
	Shifts []shiftRequest `json:"shifts" validate:"required,min=1,dive"`
}

func (h *Handler) createShifts(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, opRotaManage) {
		return
	}
	var req rotaRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondValidation(w, err)
		return
	}
	for _, shift := range req.Shifts {
		if !domain.ValidRole(shift.Role) {
			respondError(w, http.StatusBadRequest, "unknown role "+shift.Role)
			return
		}
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to start transaction")
		return
	}
	defer tx.Rollback()

	for _, shift := range req.Shifts {
		var exists bool
		if err := tx.Get(&exists, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, shift.UserID); err != nil {
			respondError(w, http.StatusInternalServerError, "unable to verify users")
			return
		}
		if !exists {
			respondError(w, http.StatusNotFound, fmt.Sprintf("unknown user %d", shift.UserID))
			return
		}
	}

	ids := make([]int64, 0, len(req.Shifts))
	for _, shift := range req.Shifts {
		var id int64
		err := tx.QueryRowx(`INSERT INTO shifts (user_id, shift_date, role, status) VALUES ($1, $2, $3, $4) RETURNING id`,
			shift.UserID, shift.ShiftDate, shift.Role, domain.ShiftAssigned).Scan(&id)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to create shifts")
			return
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to save rota")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"ids": ids})
}

func (h *Handler) listShifts(w http.ResponseWriter, r *http.Request) {
	from, err := parseDate(r.URL.Query().Get("from"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseDate(r.URL.Query().Get("to"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var shifts []domain.Shift
	err = h.db.Select(&shifts, `SELECT id, user_id, shift_date, role, status, created_at FROM shifts
		WHERE shift_date >= $1 AND shift_date <= $2 ORDER BY shift_date, id`, from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list shifts")
		return
	}
	respondJSON(w, http.StatusOK, shifts)
}

func (h *Handler) loadShift(w http.ResponseWriter, r *http.Request) (*domain.Shift, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid shift id")
		return nil, false
	}
	var shift domain.Shift
	err = h.db.Get(&shift, `SELECT id, user_id, shift_date, role, status, created_at FROM shifts WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "shift not found")
		} else {
			respondError(w, http.StatusInternalServerError, "unable to load shift")
		}
		return nil, false
	}
	return &shift, true
}

// hasShiftOnDay reports whether the user already holds any shift on the
// date, optionally ignoring one shift id (the one being swapped away).
func (h *Handler) hasShiftOnDay(userID int64, date string, ignoreShiftID int64) (bool, error) {
	var exists bool
	err := h.db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM shifts WHERE user_id = $1 AND shift_date = $2 AND id != $3)`,
		userID, date, ignoreShiftID)
	return exists, err
}

// volunteerShift relinquishes a held shift, opening it for claims.
func (h *Handler) volunteerShift(w http.ResponseWriter, r *http.Request) {
	shift, ok := h.loadShift(w, r)
	if !ok {
		return
	}
	userID := userIDFromContext(r)
	if shift.UserID != userID {
		respondError(w, http.StatusForbidden, "only the shift holder can volunteer it")
		return
	}
	if shift.Status != domain.ShiftAssigned {
		respondError(w, http.StatusConflict, "shift is already volunteered")
		return
	}
	if _, err := h.db.Exec(`UPDATE shifts SET status = $1 WHERE id = $2`, domain.ShiftVolunteered, shift.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to volunteer shift")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "shift volunteered"})
}

// claimShift assigns a volunteered shift to the caller if their role
// matches and they are free that day.
func (h *Handler) claimShift(w http.ResponseWriter, r *http.Request) {
	shift, ok := h.loadShift(w, r)
	if !ok {
		return
	}
	if shift.Status != domain.ShiftVolunteered {
		respondError(w, http.StatusConflict, "shift is not open for claims")
		return
	}
	userID := userIDFromContext(r)
	role := r.Context().Value(ctxRole).(string)
	if role != shift.Role && role != domain.RoleManager {
		respondError(w, http.StatusForbidden, "shift requires role "+shift.Role)
		return
	}
	busy, err := h.hasShiftOnDay(userID, shift.ShiftDate, shift.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to check schedule")
		return
	}
	if busy {
		respondError(w, http.StatusConflict, "you already hold a shift on "+shift.ShiftDate)
		return
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to start transaction")
		return
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE shifts SET user_id = $1, status = $2 WHERE id = $3`,
		userID, domain.ShiftAssigned, shift.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to claim shift")
		return
	}
	if _, err := tx.Exec(`INSERT INTO shift_claims (shift_id, user_id) VALUES ($1, $2)`, shift.ID, userID); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to record claim")
		return
	}
	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to save claim")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "shift claimed"})
}

type swapRequestBody struct {
	ToUserID int64 `json:"to_user_id" validate:"required"`
}

func (h *Handler) requestSwap(w http.ResponseWriter, r *http.Request) {
	shift, ok := h.loadShift(w, r)
	if !ok {
		return
	}
	userID := userIDFromContext(r)
	if shift.UserID != userID {
		respondError(w, http.StatusForbidden, "only the shift holder can request a swap")
		return
	}
	var req swapRequestBody
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondValidation(w, err)
		return
	}
	if req.ToUserID == userID {
		respondError(w, http.StatusBadRequest, "cannot swap a shift with yourself")
		return
	}
	var exists bool
	if err := h.db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, req.ToUserID); err != nil || !exists {
		respondError(w, http.StatusNotFound, "target user not found")
		return
	}

	var id int64
	err := h.db.QueryRowx(`INSERT INTO swap_requests (shift_id, from_user_id, to_user_id, status) VALUES ($1, $2, $3, $4) RETURNING id`,
		shift.ID, userID, req.ToUserID, domain.SwapPending).Scan(&id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create swap request")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"id": id, "status": domain.SwapPending})
}

func (h *Handler) loadPendingSwap(w http.ResponseWriter, r *http.Request) (*domain.SwapRequest, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid swap id")
		return nil, false
	}
	var swap domain.SwapRequest
	err = h.db.Get(&swap, `SELECT id, shift_id, from_user_id, to_user_id, status, created_at FROM swap_requests WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "swap request not found")
		} else {
			respondError(w, http.StatusInternalServerError, "unable to load swap request")
		}
		return nil, false
	}
	if swap.ToUserID != userIDFromContext(r) {
		respondError(w, http.StatusForbidden, "only the swap target can respond")
		return nil, false
	}
	if swap.Status != domain.SwapPending {
		respondError(w, http.StatusConflict, "swap request already resolved")
		return nil, false
	}
	return &swap, true
}

// acceptSwap reassigns the shift to the target after re-running the
// day-conflict check; the schedule may have changed since the request.
func (h *Handler) acceptSwap(w http.ResponseWriter, r *http.Request) {
	swap, ok := h.loadPendingSwap(w, r)
	if !ok {
		return
	}
	var shift domain.Shift
	if err := h.db.Get(&shift, `SELECT id, user_id, shift_date, role, status, created_at FROM shifts WHERE id = $1`, swap.ShiftID); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load shift")
		return
	}
	busy, err := h.hasShiftOnDay(swap.ToUserID, shift.ShiftDate, shift.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to check schedule")
		return
	}
	if busy {
		respondError(w, http.StatusConflict, "you already hold a shift on "+shift.ShiftDate)
		return
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to start transaction")
		return
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE shifts SET user_id = $1 WHERE id = $2`, swap.ToUserID, shift.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to reassign shift")
		return
	}
	if _, err := tx.Exec(`UPDATE swap_requests SET status = $1 WHERE id = $2`, domain.SwapAccepted, swap.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update swap request")
		return
	}
	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to save swap")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "swap accepted"})
}

func (h *Handler) declineSwap(w http.ResponseWriter, r *http.Request) {
	swap, ok := h.loadPendingSwap(w, r)
	if !ok {
		return
	}
	if _, err := h.db.Exec(`UPDATE swap_requests SET status = $1 WHERE id = $2`, domain.SwapDeclined, swap.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update swap request")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "swap declined"})
}
