package entity

// Variant is a purchasable SKU of a product, distinguished by pack weight.
type Variant struct {
	Weight string `json:"weight" yaml:"weight"`
	Price  int64  `json:"price" yaml:"price"`
	SKU    string `json:"sku" yaml:"sku"`
}

// Product represents a product in the store. Products are immutable
// catalog data, loaded once at startup.
type Product struct {
	ID               string    `json:"id" yaml:"id"`
	Name             string    `json:"name" yaml:"name"`
	ShortDescription string    `json:"short_description" yaml:"shortDescription"`
	Description      string    `json:"description" yaml:"description"`
	Image            string    `json:"image" yaml:"image"`
	Images           []string  `json:"images" yaml:"images"`
	Rating           float64   `json:"rating" yaml:"rating"`
	ReviewsCount     int       `json:"reviews_count" yaml:"reviewsCount"`
	Tags             []string  `json:"tags" yaml:"tags"`
	Variants         []Variant `json:"variants" yaml:"variants"`
}

// CartItem is a line in the shopping cart. The (ProductID, VariantWeight)
// pair is unique within a cart; name, price and image are denormalized
// snapshots taken when the item was added.
type CartItem struct {
	ProductID     string `json:"product_id"`
	VariantWeight string `json:"variant_weight"`
	Quantity      int    `json:"quantity"`
	Name          string `json:"name"`
	Price         int64  `json:"price"`
	Image         string `json:"image"`
}

// CouponType describes how a coupon's value is interpreted.
type CouponType string

const (
	CouponPercentage CouponType = "PERCENTAGE"
	CouponFixed      CouponType = "FIXED"
)

// Coupon is a named discount rule. MinOrderValue of zero means no floor.
type Coupon struct {
	Code          string     `json:"code" yaml:"code"`
	DiscountType  CouponType `json:"discount_type" yaml:"discountType"`
	Value         int64      `json:"value" yaml:"value"`
	MinOrderValue int64      `json:"min_order_value" yaml:"minOrderValue"`
	Description   string     `json:"description" yaml:"description"`
}

// Address is a saved shipping address, embedded in the user's profile
// document. ID is empty for a draft that has not been saved yet.
type Address struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Pincode   string `json:"pincode"`
}

// User is the local view of the signed-in customer. Identity always comes
// from the auth provider; the remaining fields are kept in sync with the
// remote profile document.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	Avatar         string    `json:"avatar"`
	SavedAddresses []Address `json:"saved_addresses"`
}

// OrderStatus enumerates the lifecycle of an order. Only a subset is
// produced by this client; the rest arrive via the backing store.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
)

// Order is an immutable record of a completed cart at placement time.
type Order struct {
	ID           string      `json:"id"`
	CustomerName string      `json:"customer_name"`
	Total        int64       `json:"total"`
	Status       OrderStatus `json:"status"`
	Date         string      `json:"date"` // YYYY-MM-DD
	Items        []CartItem  `json:"items"`
}
