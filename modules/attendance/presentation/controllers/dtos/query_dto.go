package dtos

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/koinonia-app/koinonia/modules/attendance/domain/period"
)

type RangeQuery struct {
	From time.Time `query:"from" validate:"required"`
	To   time.Time `query:"to" validate:"required,gtefield=From"`
}

func (q *RangeQuery) Range() (period.DateRange, error) {
	return period.New(q.From, q.To)
}

type WeeklyQuery struct {
	From   time.Time `query:"from" validate:"required"`
	To     time.Time `query:"to" validate:"required,gtefield=From"`
	Recent int       `query:"recent" validate:"gte=0,lte=520"`
}

func (q *WeeklyQuery) Range() (period.DateRange, error) {
	return period.New(q.From, q.To)
}

type NetworkQuery struct {
	AsOf time.Time `query:"as_of"`
}

type InvalidateQuery struct {
	Reason string `query:"reason" validate:"omitempty,max=64"`
}

// Describe turns decoder and validator failures into a single client-facing message.
func Describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "query is invalid"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
		case "gtefield":
			parts = append(parts, fmt.Sprintf("%s must not be before %s", fe.Field(), strings.ToLower(fe.Param())))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return strings.Join(parts, "; ")
}
