package model

type Apartment struct {
	ID            string `json:"_id"`
	ApartmentName string `json:"apartmentName"`
	Address       string `json:"address"`
	City          string `json:"city"`
	Beds          int    `json:"beds"`
}

type ApartmentsResponse struct {
	Apartments []Apartment `json:"apartments"`
}

func FindApartment(apartments []Apartment, id string) (Apartment, bool) {
	for _, apt := range apartments {
		if apt.ID == id {
			return apt, true
		}
	}
	return Apartment{}, false
}
