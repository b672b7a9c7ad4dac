package models

// User is the profile returned by the currentuser endpoint.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// CartLine is a single product entry in a cart. ProductID is unique
// within a cart; adding the same product again increments Quantity.
type CartLine struct {
	ProductID    string  `json:"productId"`
	ProductName  string  `json:"productName"`
	UnitPrice    float64 `json:"price"`
	Quantity     int     `json:"quantity"`
	ProductImage string  `json:"productImage"`
}

// Cart holds cart lines in insertion order.
type Cart struct {
	Items []CartLine `json:"items"`
}

// Find returns the index of the line for productID, or -1.
func (c *Cart) Find(productID string) int {
	for i, line := range c.Items {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// TotalQuantity sums the quantities of all lines.
func (c *Cart) TotalQuantity() int {
	total := 0
	for _, line := range c.Items {
		total += line.Quantity
	}
	return total
}

type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"imageUrl"`
	CategoryID  string  `json:"categoryId"`
	Stock       int     `json:"stock"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// OrderLine mirrors CartLine at the time the order was placed.
type OrderLine struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"price"`
}

type Order struct {
	ID         string      `json:"id"`
	UserID     string      `json:"userId"`
	Items      []OrderLine `json:"items"`
	Total      float64     `json:"total"`
	Status     string      `json:"status"`
	PaymentRef string      `json:"paymentRef,omitempty"`
}

// Order statuses used by the order endpoints.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)
