package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusServed    = "served"
	OrderStatusPickedUp  = "picked_up"
	OrderStatusOnTheWay  = "on_the_way"
	OrderStatusDelivered = "delivered"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

const (
	TableStatusVacant   = "vacant"
	TableStatusOccupied = "occupied"
	TableStatusCleaning = "cleaning"
)

const (
	PartnerStatusAvailable = "available"
	PartnerStatusBusy      = "busy"
	PartnerStatusOffline   = "offline"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCOD       = "cod"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// ── Group B: Borderline (CHECK constrained in DB) ──

const (
	UserRoleAdmin           = "admin"
	UserRoleBranchManager   = "branch_manager"
	UserRoleWaiter          = "waiter"
	UserRoleKitchenStaff    = "kitchen_staff"
	UserRoleDeliveryPartner = "delivery_partner"
	UserRoleCustomer        = "customer"
)

const (
	OrderTypeDineIn   = "dine_in"
	OrderTypeTakeaway = "takeaway"
	OrderTypeDelivery = "delivery"
)

const (
	PaymentMethodCOD    = "cod"
	PaymentMethodOnline = "online"
)

const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)
