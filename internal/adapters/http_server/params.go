package httpserver

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("query"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

type nearbyParams struct {
	Lat    *float64 `query:"lat" validate:"required,gte=-90,lte=90"`
	Lng    *float64 `query:"lng" validate:"required,gte=-180,lte=180"`
	Radius int      `query:"radius" validate:"gte=1,lte=50000"`
	Limit  int      `query:"limit" validate:"gte=1,lte=100"`
	Lang   string   `query:"lang"`
}

type profileParams struct {
	Name     string   `query:"name" validate:"required,max=200"`
	Lat      *float64 `query:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng      *float64 `query:"lng" validate:"omitempty,gte=-180,lte=180"`
	Duration string   `query:"duration" validate:"omitempty,oneof=short medium long 30s 90s 3min"`
	Lang     string   `query:"lang"`
}

func optFloat(q url.Values, key string) (*float64, error) {
	s := strings.TrimSpace(q.Get(key))
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", key)
	}
	return &f, nil
}

func optInt(q url.Values, key string, def int) (int, error) {
	s := strings.TrimSpace(q.Get(key))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}

func parseNearby(q url.Values) (nearbyParams, error) {
	var (
		p    = nearbyParams{Lang: q.Get("lang")}
		errs []error
		err  error
	)
	if p.Lat, err = optFloat(q, "lat"); err != nil {
		errs = append(errs, err)
	}
	if p.Lng, err = optFloat(q, "lng"); err != nil {
		errs = append(errs, err)
	}
	if p.Radius, err = optInt(q, "radius", 1000); err != nil {
		errs = append(errs, err)
	}
	if p.Limit, err = optInt(q, "limit", 50); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return p, err
	}
	return p, validate.Struct(p)
}

func parseProfile(q url.Values) (profileParams, error) {
	var (
		p = profileParams{
			Name:     strings.TrimSpace(q.Get("name")),
			Duration: strings.ToLower(strings.TrimSpace(q.Get("duration"))),
			Lang:     q.Get("lang"),
		}
		err1, err2 error
	)
	p.Lat, err1 = optFloat(q, "lat")
	p.Lng, err2 = optFloat(q, "lng")
	if err := errors.Join(err1, err2); err != nil {
		return p, err
	}
	return p, validate.Struct(p)
}

// validationDetail renders validator errors as "lat: lte=90; name: required".
func validationDetail(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		m := fe.Field() + ": " + fe.Tag()
		if fe.Param() != "" {
			m += "=" + fe.Param()
		}
		msgs = append(msgs, m)
	}
	return strings.Join(msgs, "; ")
}
