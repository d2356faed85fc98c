package httpapi

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/oggyb/tripmate-match/internal/db"
)

// validate checks request bodies and query strings. Ids are checked by the
// services, which also canonicalise them.
var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("direction", validateDirection)
	_ = validate.RegisterValidation("usertype", validateUserType)
}

func validateDirection(fl validator.FieldLevel) bool {
	return db.Direction(fl.Field().String()).Valid()
}

func validateUserType(fl validator.FieldLevel) bool {
	switch db.UserType(fl.Field().String()) {
	case db.UserTypeTourist, db.UserTypeLocal, db.UserTypeBoth:
		return true
	}
	return false
}

// swipeBody is the POST /v1/swipes payload.
type swipeBody struct {
	SwiperID  string `json:"swiper_id" validate:"required"`
	SwipedID  string `json:"swiped_id" validate:"required"`
	Direction string `json:"direction" validate:"required,direction"`
}

// markSeenBody is the POST /v1/users/:id/likes/seen payload. No ids means
// "everything".
type markSeenBody struct {
	SwiperIDs []string `json:"swiper_ids" validate:"omitempty,max=500,dive,required"`
}

// locationBody is the PUT /v1/users/:id/location payload.
type locationBody struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
}

// discoverQuery holds the GET /v1/users/:id/discover query string.
type discoverQuery struct {
	MaxDistance   *float64 `form:"max_distance" validate:"omitempty,gt=0"`
	UserType      string   `form:"user_type" validate:"omitempty,usertype"`
	IsGuide       *bool    `form:"is_guide"`
	HasCar        *bool    `form:"has_car"`
	HasMotorcycle *bool    `form:"has_motorcycle"`
	Gender        string   `form:"gender" validate:"omitempty,max=16"`
	OnlyVerified  bool     `form:"only_verified"`
	Languages     string   `form:"languages"`
	Lat           *float64 `form:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lon           *float64 `form:"lon" validate:"omitempty,gte=-180,lte=180"`
	Limit         int      `form:"limit" validate:"gte=0"`
}

// languages splits the comma separated languages parameter.
func (q discoverQuery) languages() []string {
	if strings.TrimSpace(q.Languages) == "" {
		return nil
	}
	var out []string
	for _, l := range strings.Split(q.Languages, ",") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

type pageQuery struct {
	PageToken string `form:"page_token"`
	Limit     int    `form:"limit" validate:"gte=0,lte=100"`
}

// validationMessage turns validator errors into a short client message.
func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	return fmt.Sprintf("%s failed %q validation", strings.ToLower(fe.Field()), fe.Tag())
}
