package suppliers

import "time"

type Supplier struct {
	ID        int64
	Name      string
	Contact   string
	Phone     string
	Email     string
	Address   string
	CreatedAt time.Time
}
