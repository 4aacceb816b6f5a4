package family

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yardimel/yardimel/core"
)

// Family statuses
const (
	StatusPending  = "pending"
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusRejected = "rejected"
)

// Member relations
const (
	RelationHead   = "head"
	RelationSpouse = "spouse"
	RelationChild  = "child"
	RelationParent = "parent"
	RelationOther  = "other"
)

// Document types
const (
	DocumentIDCard    = "id_card"
	DocumentResidence = "residence"
	DocumentIncome    = "income"
	DocumentHealth    = "health"
	DocumentOther     = "other"
)

// Family is a registered household. Families are never physically deleted;
// they are archived (IsActive=false) instead.
type Family struct {
	ID                 string    `json:"id"`
	NationalID         string    `json:"national_id"`
	RepresentativeName string    `json:"representative_name"`
	Phone              string    `json:"phone"`
	City               string    `json:"city"`
	District           string    `json:"district"`
	Neighborhood       string    `json:"neighborhood"`
	AddressDetail      string    `json:"address_detail"`
	Latitude           *float64  `json:"latitude,omitempty"`
	Longitude          *float64  `json:"longitude,omitempty"`
	LocationLink       string    `json:"location_link,omitempty"`
	Status             string    `json:"status"`
	DistributionZone   string    `json:"distribution_zone,omitempty"`
	Notes              string    `json:"notes,omitempty"`
	IsActive           *bool     `json:"is_active"`
	CreatedBy          string    `json:"created_by,omitempty"`
	UpdatedBy          string    `json:"updated_by,omitempty"`
	CreatedAt          time.Time `json:"created_at"` // UTC
	UpdatedAt          time.Time `json:"updated_at"` // UTC
}

func (f *Family) SetActive(active bool) {
	f.IsActive = &active
}

func (f *Family) Active() bool {
	return f.IsActive != nil && *f.IsActive
}

func (f *Family) FullAddress() string {
	return fmt.Sprintf("%s, %s, %s", f.Neighborhood, f.District, f.City)
}

// Member is a person belonging to a Family. A family has exactly one head.
type Member struct {
	ID          string    `json:"id"`
	FamilyID    string    `json:"family_id"`
	FullName    string    `json:"full_name"`
	Relation    string    `json:"relation"`
	Age         *int      `json:"age,omitempty"`
	IsHead      bool      `json:"is_head"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Document records family paperwork metadata (the binary itself lives in an
// external store and is referenced by FileName).
type Document struct {
	ID          string    `json:"id"`
	FamilyID    string    `json:"family_id"`
	Type        string    `json:"type"`
	FileName    string    `json:"file_name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewFamily contains information needed to register a new Family.
type NewFamily struct {
	NationalID         string   `json:"national_id" validate:"required,national_id"`
	RepresentativeName string   `json:"representative_name" validate:"required,max=100"`
	Phone              string   `json:"phone" validate:"required,max=20"`
	City               string   `json:"city" validate:"required,max=20"`
	District           string   `json:"district" validate:"required,max=50"`
	Neighborhood       string   `json:"neighborhood" validate:"required,max=100"`
	AddressDetail      string   `json:"address_detail" validate:"required"`
	Latitude           *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude          *float64 `json:"longitude" validate:"omitempty,longitude"`
	LocationLink       string   `json:"location_link" validate:"omitempty,url"`
	DistributionZone   string   `json:"distribution_zone" validate:"omitempty,max=50"`
	Notes              string   `json:"notes"`
}

func (nf *NewFamily) Validate(validate *validator.Validate, svc Service) error {
	nf.NationalID = core.CleanString(nf.NationalID)
	nf.RepresentativeName = core.CleanString(nf.RepresentativeName)
	nf.Phone = core.CleanString(nf.Phone)
	nf.City = core.CleanString(nf.City, true /* lower */)
	nf.District = core.CleanString(nf.District)
	nf.Neighborhood = core.CleanString(nf.Neighborhood)

	if err := validate.Struct(nf); err != nil {
		return err
	}
	return svc.CheckNationalIDUniqueness(nf.NationalID)
}

// UpdateFamily defines what information may be provided to modify an existing Family.
type UpdateFamily struct {
	RepresentativeName string   `json:"representative_name" validate:"omitempty,max=100"`
	Phone              string   `json:"phone" validate:"omitempty,max=20"`
	City               string   `json:"city" validate:"omitempty,max=20"`
	District           string   `json:"district" validate:"omitempty,max=50"`
	Neighborhood       string   `json:"neighborhood" validate:"omitempty,max=100"`
	AddressDetail      string   `json:"address_detail"`
	Latitude           *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude          *float64 `json:"longitude" validate:"omitempty,longitude"`
	LocationLink       string   `json:"location_link" validate:"omitempty,url"`
	DistributionZone   string   `json:"distribution_zone" validate:"omitempty,max=50"`
	Notes              string   `json:"notes"`
}

func (uf *UpdateFamily) Validate(orig Family, validate *validator.Validate) error {
	if name := core.CleanString(uf.RepresentativeName); name != "" {
		uf.RepresentativeName = name
	} else {
		uf.RepresentativeName = orig.RepresentativeName
	}
	if phone := core.CleanString(uf.Phone); phone != "" {
		uf.Phone = phone
	} else {
		uf.Phone = orig.Phone
	}
	if city := core.CleanString(uf.City, true /* lower */); city != "" {
		uf.City = city
	} else {
		uf.City = orig.City
	}
	if district := core.CleanString(uf.District); district != "" {
		uf.District = district
	} else {
		uf.District = orig.District
	}
	if hood := core.CleanString(uf.Neighborhood); hood != "" {
		uf.Neighborhood = hood
	} else {
		uf.Neighborhood = orig.Neighborhood
	}
	if uf.AddressDetail == "" {
		uf.AddressDetail = orig.AddressDetail
	}
	return validate.Struct(uf)
}

// NewMember contains information needed to add a Member to a Family.
type NewMember struct {
	FullName    string `json:"full_name" validate:"required,max=100"`
	Relation    string `json:"relation" validate:"required,oneof=head spouse child parent other"`
	Age         *int   `json:"age" validate:"omitempty,gte=0,lte=130"`
	Description string `json:"description" validate:"omitempty,max=255"`
}

func (nm *NewMember) Validate(validate *validator.Validate) error {
	nm.FullName = core.CleanString(nm.FullName)
	return validate.Struct(nm)
}

// UpdateMember defines what information may be provided to modify a Member.
type UpdateMember struct {
	FullName    string `json:"full_name" validate:"omitempty,max=100"`
	Relation    string `json:"relation" validate:"omitempty,oneof=head spouse child parent other"`
	Age         *int   `json:"age" validate:"omitempty,gte=0,lte=130"`
	Description string `json:"description" validate:"omitempty,max=255"`
}

func (um *UpdateMember) Validate(orig Member, validate *validator.Validate) error {
	if name := core.CleanString(um.FullName); name != "" {
		um.FullName = name
	} else {
		um.FullName = orig.FullName
	}
	if um.Relation == "" {
		um.Relation = orig.Relation
	}
	return validate.Struct(um)
}

// NewDocument contains metadata for a family document.
type NewDocument struct {
	Type        string `json:"type" validate:"required,oneof=id_card residence income health other"`
	FileName    string `json:"file_name" validate:"required,max=255"`
	Description string `json:"description" validate:"omitempty,max=255"`
}

func (nd *NewDocument) Validate(validate *validator.Validate) error {
	nd.FileName = core.CleanString(nd.FileName)
	return validate.Struct(nd)
}

type QueryFilter struct {
	Search   string `query:"search"`
	Status   string `query:"status"`
	District string `query:"district"`
	Zone     string `query:"zone"`
	IsActive *bool  `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Status == "" && qf.District == "" && qf.Zone == "" && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.District = core.CleanString(qf.District)
	qf.Zone = core.CleanString(qf.Zone)
}
