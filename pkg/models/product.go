package models

const (
	DefaultProductCurrency = "INR"
	ProductStatusActive    = "active"
	ProductStatusArchived  = "archived"
	// ProductStatusAll disables the status filter of a product listing.
	ProductStatusAll = "all"
)

type Product struct {
	Base
	Name        string  `db:"name" json:"name"`
	Code        string  `db:"code" json:"code"`
	Description *string `db:"description" json:"description"`
	Price       float64 `db:"price" json:"price"`
	Currency    string  `db:"currency" json:"currency"`
	Category    *string `db:"category" json:"category"`
	Status      string  `db:"status" json:"status"`
}

type ProductFields struct {
	Description *string  `json:"description"`
	Price       *float64 `json:"price" validate:"omitempty,min=0"`
	Currency    *string  `json:"currency" validate:"omitempty,len=3"`
	Category    *string  `json:"category"`
	Status      *string  `json:"status" validate:"omitempty,oneof=active archived"`
}

type CreateProductRequest struct {
	Name string `json:"name" validate:"required"`
	Code string `json:"code" validate:"required"`
	ProductFields
}

type UpdateProductRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1"`
	Code *string `json:"code" validate:"omitempty,min=1"`
	ProductFields
}

type ListProductsRequest struct {
	ListRequest
	Category string `query:"category"`
	Status   string `query:"status"`
}

func (f ProductFields) Apply(p *Product) {
	set(&p.Description, f.Description)
	setValue(&p.Price, f.Price)
	setValue(&p.Currency, f.Currency)
	set(&p.Category, f.Category)
	setValue(&p.Status, f.Status)
}

func NewProduct(name, code string) *Product {
	return &Product{Name: name, Code: code, Currency: DefaultProductCurrency, Status: ProductStatusActive}
}
