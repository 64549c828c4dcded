package types

import "fmt"

// ItemType identifies the kind of trip item a grant refers to. Items are
// polymorphic: different kinds live in different tables, so grants reference
// them by (type, id) rather than a foreign key.
type ItemType string

const (
	ItemTypeFlight         ItemType = "flight"
	ItemTypeHotel          ItemType = "hotel"
	ItemTypeEvent          ItemType = "event"
	ItemTypeTransportation ItemType = "transportation"
	ItemTypeCarRental      ItemType = "car_rental"
)

// String returns the string representation of an ItemType.
func (t ItemType) String() string {
	return string(t)
}

// IsValid checks if the item type belongs to the closed set of cascadable
// item kinds. Permission cascades ignore any other type.
func (t ItemType) IsValid() bool {
	switch t {
	case ItemTypeFlight, ItemTypeHotel, ItemTypeEvent, ItemTypeTransportation, ItemTypeCarRental:
		return true
	}
	return false
}

// ItemRef is a polymorphic reference to a single trip item.
type ItemRef struct {
	Type ItemType `json:"itemType"`
	ID   string   `json:"itemId"`
}

func (r ItemRef) String() string {
	return fmt.Sprintf("%s/%s", r.Type, r.ID)
}
