package pipeline

import (
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/render"
)

// Request is the raw generation submission for one manifestation letter.
// Wire names follow the letter template's field catalog; flags arrive in the
// two-valued si/no domain and dates as DD/MM/YYYY style strings.
type Request struct {
	OfficeAddress string `json:"Direccion_Oficina"`
	PostalCode    string `json:"CP"`
	OfficeCity    string `json:"Ciudad_Oficina"`
	ClientName    string `json:"Nombre_Cliente"`

	TodayDate      string `json:"Fecha_de_hoy,omitempty"`
	AssignmentDate string `json:"Fecha_encargo,omitempty"`
	FiscalYearEnd  string `json:"FF_Ejecicio,omitempty"`
	ClosingDate    string `json:"Fecha_cierre,omitempty"`

	Lawyers             string `json:"Lista_Abogados,omitempty"`
	RelatedPartiesAnnex string `json:"anexo_partes,omitempty"`
	ProjectionsAnnex    string `json:"anexo_proyecciones,omitempty"`
	Organ               string `json:"organo,omitempty"`

	AuditCommittee      string `json:"comision,omitempty"`
	ShareholdersMeeting string `json:"junta,omitempty"`
	Committee           string `json:"comite,omitempty"`
	Misstatements       string `json:"incorreccion,omitempty"`
	GoingConcernDoubts  string `json:"dudas,omitempty"`
	Leases              string `json:"rent,omitempty"`
	AssetsAtCost        string `json:"A_coste,omitempty"`
	IndependentExpert   string `json:"experto,omitempty"`
	DecisionUnit        string `json:"unidad_decision,omitempty"`
	DeferredTaxAssets   string `json:"activo_impuesto,omitempty"`
	TaxHavenOperations  string `json:"operacion_fiscal,omitempty"`
	PensionCommitments  string `json:"compromiso,omitempty"`
	ManagementReport    string `json:"gestion,omitempty"`
	ScopeLimitation     string `json:"limitacion_alcance,omitempty"`

	MisstatementYear   string `json:"Anio_incorreccion,omitempty"`
	AffectedSection    string `json:"Epigrafe,omitempty"`
	LimitationDetail   string `json:"detalle_limitacion,omitempty"`
	ExpertName         string `json:"nombre_experto,omitempty"`
	ExpertValuation    string `json:"experto_valoracion,omitempty"`
	UnitName           string `json:"nombre_unidad,omitempty"`
	LargestCompany     string `json:"nombre_mayor_sociedad,omitempty"`
	CommercialLocation string `json:"localizacion_mer,omitempty"`
	RecoveryStartYear  string `json:"ejercicio_recuperacion_inicio,omitempty"`
	RecoveryEndYear    string `json:"ejercicio_recuperacion_fin,omitempty"`
	TaxOperationDetail string `json:"detalle_operacion_fiscal,omitempty"`

	// The director list is built from the explicit declared count, never
	// inferred from how many entries happen to be present.
	DirectorCount int               `json:"director_count"`
	Directors     []render.Director `json:"lista_alto_directores,omitempty"`

	SignatoryName string `json:"Nombre_Firma,omitempty"`
	SignatoryRole string `json:"Cargo_Firma,omitempty"`
}

func (r Request) dateFields() map[string]string {
	return map[string]string{
		"Fecha_de_hoy":  r.TodayDate,
		"Fecha_encargo": r.AssignmentDate,
		"FF_Ejecicio":   r.FiscalYearEnd,
		"Fecha_cierre":  r.ClosingDate,
	}
}

func (r Request) flagFields() map[string]string {
	return map[string]string{
		"comision":           r.AuditCommittee,
		"junta":              r.ShareholdersMeeting,
		"comite":             r.Committee,
		"incorreccion":       r.Misstatements,
		"dudas":              r.GoingConcernDoubts,
		"rent":               r.Leases,
		"A_coste":            r.AssetsAtCost,
		"experto":            r.IndependentExpert,
		"unidad_decision":    r.DecisionUnit,
		"activo_impuesto":    r.DeferredTaxAssets,
		"operacion_fiscal":   r.TaxHavenOperations,
		"compromiso":         r.PensionCommitments,
		"gestion":            r.ManagementReport,
		"limitacion_alcance": r.ScopeLimitation,
	}
}

func (r Request) textFields() map[string]string {
	return map[string]string{
		"Lista_Abogados":                r.Lawyers,
		"anexo_partes":                  r.RelatedPartiesAnnex,
		"anexo_proyecciones":            r.ProjectionsAnnex,
		"organo":                        r.Organ,
		"Anio_incorreccion":             r.MisstatementYear,
		"Epigrafe":                      r.AffectedSection,
		"detalle_limitacion":            r.LimitationDetail,
		"nombre_experto":                r.ExpertName,
		"experto_valoracion":            r.ExpertValuation,
		"nombre_unidad":                 r.UnitName,
		"nombre_mayor_sociedad":         r.LargestCompany,
		"localizacion_mer":              r.CommercialLocation,
		"ejercicio_recuperacion_inicio": r.RecoveryStartYear,
		"ejercicio_recuperacion_fin":    r.RecoveryEndYear,
		"detalle_operacion_fiscal":      r.TaxOperationDetail,
	}
}
