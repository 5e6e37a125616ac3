package mysql

const upsertSpotSQL = `
INSERT INTO spots
  (id, category, lat, lon, rating, images, features, features_ja, website, phone, raw)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  category    = VALUES(category),
  lat         = VALUES(lat),
  lon         = VALUES(lon),
  rating      = VALUES(rating),
  images      = VALUES(images),
  features    = VALUES(features),
  features_ja = VALUES(features_ja),
  website     = COALESCE(VALUES(website), spots.website),
  phone       = COALESCE(VALUES(phone), spots.phone),
  raw         = VALUES(raw),
  updated_at  = CURRENT_TIMESTAMP
`

const upsertSpotI18nSQL = `
INSERT INTO spot_i18n
  (spot_id, lang, name, description, historical_info, address, opening_hours, price)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name            = VALUES(name),
  description     = VALUES(description),
  historical_info = COALESCE(NULLIF(VALUES(historical_info), ''), spot_i18n.historical_info),
  address         = VALUES(address),
  opening_hours   = COALESCE(VALUES(opening_hours), spot_i18n.opening_hours),
  price           = COALESCE(VALUES(price), spot_i18n.price)
`

const insertMissSQL = `
INSERT INTO ingest_misses (id, http_status, reason)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
  http_status = VALUES(http_status),
  reason      = VALUES(reason),
  seen_at     = CURRENT_TIMESTAMP
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// Both language rows are joined; the repo fills a missing one from the other.
const spotColumns = `
  s.id,
  s.category,
  s.lat,
  s.lon,
  s.rating,
  s.images,
  s.features,
  s.features_ja,
  s.website,
  s.phone,
  e.name, e.description, e.historical_info, e.address, e.opening_hours, e.price,
  j.name, j.description, j.historical_info, j.address, j.opening_hours, j.price
FROM spots s
LEFT JOIN spot_i18n e ON e.spot_id = s.id AND e.lang = 'en'
LEFT JOIN spot_i18n j ON j.spot_id = s.id AND j.lang = 'ja'
`

const getSpotSQL = `SELECT` + spotColumns + `WHERE s.id = ?`

// Bounding box on (lat, lon), nearest first by equirectangular distance.
// Args: minLat, maxLat, minLon, maxLon, lat, lon, cos(lat), limit.
const listNearSQL = `SELECT` + spotColumns + `
WHERE s.lat BETWEEN ? AND ?
  AND s.lon BETWEEN ? AND ?
ORDER BY POW(s.lat - ?, 2) + POW((s.lon - ?) * ?, 2), s.id
LIMIT ?
`
