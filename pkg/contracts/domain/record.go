package domain

// Canonical column names produced by the cleaner. The source spreadsheet
// uses the SIES Spanish headers; cleaning folds them to these identifiers.
const (
	ColInstitutionCode = "codigo_institucion"
	ColInstitutionName = "nombre_institucion"
	ColInstitutionType = "tipo_institucion"
	ColRegion          = "region"
	ColProvince        = "provincia"
	ColCommune         = "comuna"
	ColKnowledgeArea   = "area_conocimiento"
	ColProgram         = "carrera"
	ColProgramLevel    = "nivel_academico"
	ColGraduationYear  = "ano_titulacion"
	ColGraduationMonth = "mes_titulacion"
	ColGraduates       = "cantidad_titulados"
	ColGender          = "genero"
)

// GraduationRecord is one graduation-statistics record in typed form.
// The validator maps cleaned rows into this struct to run the business
// rules; rows stay in RowSet form everywhere else.
type GraduationRecord struct {
	InstitutionCode string `json:"codigo_institucion"`
	InstitutionName string `json:"nombre_institucion"`
	InstitutionType string `json:"tipo_institucion"`
	Region          string `json:"region" validate:"required,min=3"`
	Province        string `json:"provincia"`
	Commune         string `json:"comuna"`
	KnowledgeArea   string `json:"area_conocimiento"`
	Program         string `json:"carrera"`
	ProgramLevel    string `json:"nivel_academico"`
	GraduationYear  int    `json:"ano_titulacion" validate:"required,min=1990,max=2030"`
	GraduationMonth int    `json:"mes_titulacion" validate:"omitempty,min=1,max=12"`
	Graduates       int    `json:"cantidad_titulados" validate:"min=0,max=10000"`
	Gender          string `json:"genero"`
}
