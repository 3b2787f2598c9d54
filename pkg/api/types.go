package api

import "time"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Avatar       string    `json:"avatar,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Restaurant is owned by exactly one user; a user owns at most one.
type Restaurant struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Logo      string    `json:"logo,omitempty"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Category struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	RestaurantID int64  `json:"restaurant_id"`
}

type Dish struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        Money     `json:"price"`
	Image        string    `json:"image,omitempty"`
	Thumb        string    `json:"thumb,omitempty"`
	RestaurantID int64     `json:"restaurant_id"`
	CategoryID   int64     `json:"category_id"`
	CreatedAt    time.Time `json:"created_at"`
}

type Order struct {
	ID           int64       `json:"id"`
	CustomerID   int64       `json:"customer_id"`
	RestaurantID int64       `json:"restaurant_id"`
	CreatedAt    time.Time   `json:"created_at"`
	TotalAmount  Money       `json:"total_amount"`
	Items        []OrderItem `json:"items,omitempty"`
}

// OrderItem records the unit price at the time of ordering.
type OrderItem struct {
	ID        int64 `json:"id"`
	OrderID   int64 `json:"order_id"`
	DishID    int64 `json:"dish_id"`
	Quantity  int   `json:"quantity"`
	UnitPrice Money `json:"unit_price"`
}

// DefaultCategoryNames are created for every new restaurant, in menu order.
var DefaultCategoryNames = []string{"饮品", "菜品", "主食", "小吃"}
