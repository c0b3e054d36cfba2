package model

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestCalculateTotal(t *testing.T) {
    cases := []struct {
        name     string
        price    int64
        adults   int
        children int
        want     int64
    }{
        {"adults and one child", 1000, 2, 1, 2500},
        {"adults only", 149900, 3, 0, 449700},
        {"children only halves", 1000, 0, 4, 2000},
        {"odd minor unit child rounds half up", 999, 1, 1, 1499},
        {"no travellers", 5000, 0, 0, 0},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            assert.Equal(t, tc.want, CalculateTotal(tc.price, tc.adults, tc.children))
        })
    }
}

func TestTourPricePerPersonPrefersDiscount(t *testing.T) {
    tour := Tour{BasePrice: 100000}
    assert.Equal(t, int64(100000), tour.PricePerPerson())

    d := int64(80000)
    tour.DiscountPrice = &d
    assert.Equal(t, int64(80000), tour.PricePerPerson())
    assert.Equal(t, int64(200000), CalculateTotal(tour.PricePerPerson(), 2, 1))
}

func TestBookingDetailsEditable(t *testing.T) {
    for _, bs := range []string{BookingPending, BookingConfirmed, BookingCancelled} {
        for _, ps := range []string{PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded} {
            b := Booking{BookingStatus: bs, PaymentStatus: ps}
            want := bs == BookingPending && ps == PaymentPending
            assert.Equal(t, want, b.DetailsEditable(), "%s/%s", bs, ps)
            assert.Equal(t, want, b.Deletable(), "%s/%s", bs, ps)
        }
    }
}

func TestBookingPayable(t *testing.T) {
    assert.True(t, Booking{BookingStatus: BookingPending, PaymentStatus: PaymentPending}.Payable())
    assert.True(t, Booking{BookingStatus: BookingPending, PaymentStatus: PaymentFailed}.Payable())
    assert.False(t, Booking{BookingStatus: BookingConfirmed, PaymentStatus: PaymentPaid}.Payable())
    assert.False(t, Booking{BookingStatus: BookingCancelled, PaymentStatus: PaymentPending}.Payable())
}

func TestValidCategory(t *testing.T) {
    assert.True(t, ValidCategory("adventure"))
    assert.True(t, ValidCategory(CategoryCultural))
    assert.False(t, ValidCategory("CRUISE"))
}
