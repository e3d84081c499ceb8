package constants

const (
	ViewData          = "view_data"
	ListAsset         = "list_asset"
	LendFunds         = "lend_funds"
	TradeProducts     = "trade_products"
	ClaimAsset        = "claim_asset"
	ManageCollections = "manage_collections"
	RemoveUser        = "remove_user"
	AssignRole        = "assign_role"
	ManageAdmins      = "manage_admins"
)
