package auth

import "fmt"

// PermissionSet is the fixed-shape capability record derived from an account
// tier. Capabilities are independent booleans; absence always denies.
type PermissionSet struct {
	DownloadPortable bool `json:"can_download_pdf"`
	DownloadEditable bool `json:"can_download_word"`
	ViewHashDetail   bool `json:"can_view_hash"`
	ExportMetadata   bool `json:"can_export_metadata"`
	ImportMetadata   bool `json:"can_import_metadata"`
}

// CapabilitiesFor maps an account tier to its capability set. The dispatch is
// total over the two known tiers; any other value is a programming error and
// panics. Normal accounts never get the editable-document download.
func CapabilitiesFor(tier AccountTier) PermissionSet {
	switch tier {
	case TierNormal:
		return PermissionSet{
			DownloadPortable: true,
			DownloadEditable: false,
			ViewHashDetail:   true,
			ExportMetadata:   true,
			ImportMetadata:   true,
		}
	case TierProfessional:
		return PermissionSet{
			DownloadPortable: true,
			DownloadEditable: true,
			ViewHashDetail:   true,
			ExportMetadata:   true,
			ImportMetadata:   true,
		}
	default:
		panic(fmt.Sprintf("auth: unknown account tier %q", tier))
	}
}
