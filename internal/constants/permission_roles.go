package constants

import pkgconst "onda-backend/internal/pkg/constants"

// PermissionRoles maps each permission to the roles allowed to perform it.
var PermissionRoles = map[string][]string{
	ViewData:          {pkgconst.Trader, pkgconst.Manager, pkgconst.Admin, pkgconst.Superadmin},
	ListAsset:         {pkgconst.Trader, pkgconst.Manager, pkgconst.Admin, pkgconst.Superadmin},
	LendFunds:         {pkgconst.Trader, pkgconst.Manager, pkgconst.Admin, pkgconst.Superadmin},
	TradeProducts:     {pkgconst.Trader, pkgconst.Manager, pkgconst.Admin, pkgconst.Superadmin},
	ClaimAsset:        {pkgconst.Trader, pkgconst.Manager, pkgconst.Admin, pkgconst.Superadmin},
	ManageCollections: {pkgconst.Manager, pkgconst.Admin, pkgconst.Superadmin},
	RemoveUser:        {pkgconst.Admin, pkgconst.Superadmin},
	AssignRole:        {pkgconst.Admin, pkgconst.Superadmin},
	ManageAdmins:      {pkgconst.Superadmin},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
