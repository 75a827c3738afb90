package domain

import "fmt"

const (
	MaxAdults   = 10
	MaxChildren = 10
)

// GuestCount is how many people share the room. At least one adult stays.
type GuestCount struct {
	Adults   int
	Children int
}

func NewGuestCount(adults, children int) (GuestCount, error) {
	g := GuestCount{Adults: adults, Children: children}
	if err := g.Validate(); err != nil {
		return GuestCount{}, err
	}
	return g, nil
}

func (g GuestCount) Validate() error {
	if g.Adults < 1 || g.Adults > MaxAdults {
		return invalid("adults", fmt.Sprintf("must be between 1 and %d", MaxAdults))
	}
	if g.Children < 0 || g.Children > MaxChildren {
		return invalid("children", fmt.Sprintf("must be between 0 and %d", MaxChildren))
	}
	return nil
}

func (g GuestCount) Total() int { return g.Adults + g.Children }

func (g GuestCount) IsZero() bool { return g.Adults == 0 && g.Children == 0 }

func (g GuestCount) String() string {
	return fmt.Sprintf("%d adults, %d children", g.Adults, g.Children)
}
