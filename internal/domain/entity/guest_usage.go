package entity

// GuestUsage 游客当日免费额度使用情况，只有已用/未用两种状态
type GuestUsage struct {
	GenerateUsed bool `json:"generateUsed"`
	RefineUsed   bool `json:"refineUsed"`
}
