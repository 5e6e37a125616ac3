package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"spot_explorer/internal/domain"
)

const kmPerDegree = 111.32

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func jsonList(v []string) string {
	if v == nil {
		v = []string{}
	}
	b, _ := json.Marshal(v)
	return string(b)
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// UpsertSpot writes the base row and both language rows in one transaction.
func (r *Repo) UpsertSpot(ctx context.Context, s domain.TouristSpot) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal spot %s: %w", s.ID, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, upsertSpotSQL,
		s.ID,
		string(s.Category),
		s.Coordinates.Latitude,
		s.Coordinates.Longitude,
		s.Rating,
		jsonList(s.Images),
		jsonList(s.Features),
		jsonList(s.FeaturesJa),
		valStr(s.Website),
		valStr(s.Phone),
		string(raw),
	); err != nil {
		return fmt.Errorf("upsert spot %s: %w", s.ID, err)
	}

	rows := []struct {
		lang                   string
		name, desc, hist, addr string
		hours, price           *string
	}{
		{domain.LangEn, s.Name, s.Description, s.HistoricalInfo, s.Address, s.OpeningHours, s.Price},
		{domain.LangJa, s.NameJa, s.DescriptionJa, s.HistoricalInfoJa, s.AddressJa, s.OpeningHoursJa, s.PriceJa},
	}
	for _, row := range rows {
		if row.name == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, upsertSpotI18nSQL,
			s.ID, row.lang, row.name,
			nullIfEmpty(row.desc), nullIfEmpty(row.hist), nullIfEmpty(row.addr),
			valStr(row.hours), valStr(row.price),
		); err != nil {
			return fmt.Errorf("upsert spot %s/%s: %w", s.ID, row.lang, err)
		}
	}
	return tx.Commit()
}

func (r *Repo) LogMiss(ctx context.Context, key string, status int, reason string) error {
	_, err := r.db.ExecContext(ctx, insertMissSQL, key, status, reason)
	return err
}

func (r *Repo) GetSpot(ctx context.Context, id string) (domain.TouristSpot, error) {
	s, err := scanSpot(r.db.QueryRowContext(ctx, getSpotSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.TouristSpot{}, domain.ErrNotFound
		}
		return domain.TouristSpot{}, err
	}
	fillMissingLang(&s)
	return s, nil
}

// ListNear returns catalogue spots within RadiusKm of the point, nearest
// first. Distance is left for the caller to set.
func (r *Repo) ListNear(ctx context.Context, q domain.NearQuery) ([]domain.TouristSpot, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}
	minLat, maxLat, minLon, maxLon := boundingBox(q.Lat, q.Lng, q.RadiusKm)
	cosLat := math.Cos(q.Lat * math.Pi / 180)

	rows, err := r.db.QueryContext(ctx, listNearSQL,
		minLat, maxLat, minLon, maxLon,
		q.Lat, q.Lng, cosLat,
		q.Limit*2,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.TouristSpot, 0, q.Limit)
	for rows.Next() {
		s, err := scanSpot(rows)
		if err != nil {
			return nil, err
		}
		// the box corners lie outside the circle
		if domain.DistanceKm(q.Lat, q.Lng, s.Coordinates.Latitude, s.Coordinates.Longitude) > q.RadiusKm {
			continue
		}
		fillMissingLang(&s)
		out = append(out, s)
		if len(out) == q.Limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func boundingBox(lat, lng, radiusKm float64) (minLat, maxLat, minLon, maxLon float64) {
	dLat := radiusKm / kmPerDegree
	minLat, maxLat = math.Max(lat-dLat, -90), math.Min(lat+dLat, 90)

	cos := math.Cos(lat * math.Pi / 180)
	if cos < 1e-6 || maxLat == 90 || minLat == -90 {
		return minLat, maxLat, -180, 180
	}
	dLon := radiusKm / (kmPerDegree * cos)
	minLon, maxLon = lng-dLon, lng+dLon
	if minLon < -180 || maxLon > 180 {
		// TODO: split into two ranges across the antimeridian instead of scanning every longitude.
		return minLat, maxLat, -180, 180
	}
	return minLat, maxLat, minLon, maxLon
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSpot(row rowScanner) (domain.TouristSpot, error) {
	var (
		s                                domain.TouristSpot
		category                         string
		imagesJSON, featJSON, featJaJSON []byte
		website, phone                   sql.NullString
		eName, eDesc, eHist, eAddr       sql.NullString
		eHours, ePrice                   sql.NullString
		jName, jDesc, jHist, jAddr       sql.NullString
		jHours, jPrice                   sql.NullString
	)
	if err := row.Scan(
		&s.ID,
		&category,
		&s.Coordinates.Latitude, &s.Coordinates.Longitude,
		&s.Rating,
		&imagesJSON, &featJSON, &featJaJSON,
		&website, &phone,
		&eName, &eDesc, &eHist, &eAddr, &eHours, &ePrice,
		&jName, &jDesc, &jHist, &jAddr, &jHours, &jPrice,
	); err != nil {
		return domain.TouristSpot{}, err
	}

	s.Category = domain.Category(category)
	_ = json.Unmarshal(imagesJSON, &s.Images)
	_ = json.Unmarshal(featJSON, &s.Features)
	_ = json.Unmarshal(featJaJSON, &s.FeaturesJa)
	if s.Images == nil {
		s.Images = []string{}
	}
	s.Website = nullStr(website)
	s.Phone = nullStr(phone)

	s.Name, s.Description, s.HistoricalInfo, s.Address = eName.String, eDesc.String, eHist.String, eAddr.String
	s.OpeningHours, s.Price = nullStr(eHours), nullStr(ePrice)
	s.NameJa, s.DescriptionJa, s.HistoricalInfoJa, s.AddressJa = jName.String, jDesc.String, jHist.String, jAddr.String
	s.OpeningHoursJa, s.PriceJa = nullStr(jHours), nullStr(jPrice)
	return s, nil
}

func nullStr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}

// fillMissingLang copies the other language into empty display fields so a
// spot with one translation still renders in both.
func fillMissingLang(s *domain.TouristSpot) {
	pick := func(en, ja *string) {
		if *en == "" {
			*en = *ja
		}
		if *ja == "" {
			*ja = *en
		}
	}
	pick(&s.Name, &s.NameJa)
	pick(&s.Description, &s.DescriptionJa)
	pick(&s.HistoricalInfo, &s.HistoricalInfoJa)
	pick(&s.Address, &s.AddressJa)
	if s.OpeningHours == nil {
		s.OpeningHours = s.OpeningHoursJa
	}
	if s.OpeningHoursJa == nil {
		s.OpeningHoursJa = s.OpeningHours
	}
	if s.Price == nil {
		s.Price = s.PriceJa
	}
	if s.PriceJa == nil {
		s.PriceJa = s.Price
	}
}
