package domain

const (
	ShiftAssigned    = "assigned"
	ShiftVolunteered = "volunteered"
)

const (
	SwapPending  = "pending"
	SwapAccepted = "accepted"
	SwapDeclined = "declined"
)

type Shift struct {
	ID        int64  `db:"id" json:"id"`
	UserID    int64  `db:"user_id" json:"user_id"`
	ShiftDate string `db:"shift_date" json:"shift_date"`
	Role      string `db:"role" json:"role"`
	Status    string `db:"status" json:"status"`
	CreatedAt string `db:"created_at" json:"created_at"`
}

type ShiftClaim struct {
	ID        int64  `db:"id" json:"id"`
	ShiftID   int64  `db:"shift_id" json:"shift_id"`
	UserID    int64  `db:"user_id" json:"user_id"`
	CreatedAt string `db:"created_at" json:"created_at"`
}

type SwapRequest struct {
	ID         int64  `db:"id" json:"id"`
	ShiftID    int64  `db:"shift_id" json:"shift_id"`
	FromUserID int64  `db:"from_user_id" json:"from_user_id"`
	ToUserID   int64  `db:"to_user_id" json:"to_user_id"`
	Status     string `db:"status" json:"status"`
	CreatedAt  string `db:"created_at" json:"created_at"`
}
