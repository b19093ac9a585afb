package model

// House is one listing record.
type House struct {
	ID             uint64       `json:"id"`
	OwnersName     string       `json:"owners_name"`
	Location       string       `json:"location"`
	HouseType      string       `json:"house_type"`
	Price          uint64       `json:"price"`
	AvailableUnits uint64       `json:"availabile_units"`
	Availability   bool         `json:"availability"`
	CreatedAt      Timestamp    `json:"created_at"`
	UpdatedAt      OptionalTime `json:"updated_at"`
}

// HousePayload carries every House field the caller controls: everything
// except the id and the two timestamps.
type HousePayload struct {
	OwnersName     string `json:"owners_name"`
	Location       string `json:"location"`
	HouseType      string `json:"house_type"`
	Price          uint64 `json:"price"`
	AvailableUnits uint64 `json:"availabile_units"`
	Availability   bool   `json:"availability"`
}

// NewHouse builds a freshly created record from a payload.
func NewHouse(id uint64, p HousePayload, createdAt Timestamp) House {
	h := House{ID: id, CreatedAt: createdAt}
	h.Apply(p)
	return h
}

// Apply overwrites every mutable field from p. Timestamps are untouched.
func (h *House) Apply(p HousePayload) {
	h.OwnersName = p.OwnersName
	h.Location = p.Location
	h.HouseType = p.HouseType
	h.Price = p.Price
	h.AvailableUnits = p.AvailableUnits
	h.Availability = p.Availability
}

// Payload returns the caller-controlled fields of h.
func (h House) Payload() HousePayload {
	return HousePayload{
		OwnersName:     h.OwnersName,
		Location:       h.Location,
		HouseType:      h.HouseType,
		Price:          h.Price,
		AvailableUnits: h.AvailableUnits,
		Availability:   h.Availability,
	}
}

// Touch records a mutation at ts.
func (h *House) Touch(ts Timestamp) {
	h.UpdatedAt = SomeTime(ts)
}
