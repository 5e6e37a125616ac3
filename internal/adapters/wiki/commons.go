package wiki

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"spot_explorer/internal/domain"
)

const (
	svcCommons     = "commons"
	maxImages      = 5
	thumbWidth     = 800
	geoSearchLimit = 20
)

var imageDenyList = []string{"commons-logo", ".svg", "edit-icon", "wikimedia"}

type imageInfo struct {
	URL            string `json:"url"`
	ThumbURL       string `json:"thumburl"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Mime           string `json:"mime"`
	DescriptionURL string `json:"descriptionurl"`
	ExtMetadata    map[string]struct {
		Value string `json:"value"`
	} `json:"extmetadata"`
}

type geoSearchResp struct {
	Query struct {
		GeoSearch []domain.GeoHit `json:"geosearch"`
	} `json:"query"`
}

func usableImage(title string) bool {
	t := strings.ToLower(title)
	for _, deny := range imageDenyList {
		if strings.Contains(t, deny) {
			return false
		}
	}
	return true
}

// ArticleImages lists the files embedded in an article and fetches their
// details. Icons and logos are filtered; at most five are returned, in
// page order. Files whose details fail are dropped.
func (c *Client) ArticleImages(ctx context.Context, title, lang string) ([]domain.Image, error) {
	var pr pagesResp
	q := url.Values{
		"action":    {"query"},
		"titles":    {title},
		"prop":      {"images"},
		"imlimit":   {"10"},
		"redirects": {"1"},
	}
	if err := c.getJSON(ctx, svcWikipedia, "images", c.wikipediaURL(lang, q), &pr); err != nil {
		return nil, fmt.Errorf("images %q: %w", title, err)
	}
	p, ok := pr.first()
	if !ok {
		return []domain.Image{}, nil
	}

	var files []string
	for _, im := range p.Images {
		if !usableImage(im.Title) {
			continue
		}
		files = append(files, im.Title)
		if len(files) == maxImages {
			break
		}
	}
	return c.imageDetailsAll(ctx, files), nil
}

// ImagesFromArticle is ArticleImages with failures collapsed to an empty list.
func (c *Client) ImagesFromArticle(ctx context.Context, title, lang string) []domain.Image {
	imgs, err := c.ArticleImages(ctx, title, lang)
	if err != nil {
		log.Debug().Err(err).Str("title", title).Msg("article images failed")
		return []domain.Image{}
	}
	return imgs
}

func (c *Client) imageDetailsAll(ctx context.Context, files []string) []domain.Image {
	got := make([]*domain.Image, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxImages)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			img, err := c.ImageDetails(gctx, f)
			if err != nil {
				log.Debug().Err(err).Str("file", f).Msg("image details failed")
				return nil
			}
			got[i] = img
			return nil
		})
	}
	_ = g.Wait()

	out := make([]domain.Image, 0, len(files))
	for _, img := range got {
		if img != nil {
			out = append(out, *img)
		}
	}
	return out
}

// NearbyFiles runs a Commons geosearch over the File namespace.
func (c *Client) NearbyFiles(ctx context.Context, lat, lng float64, radiusMeters int) ([]domain.GeoHit, error) {
	var gr geoSearchResp
	q := url.Values{
		"action":      {"query"},
		"list":        {"geosearch"},
		"gscoord":     {strconv.FormatFloat(lat, 'f', -1, 64) + "|" + strconv.FormatFloat(lng, 'f', -1, 64)},
		"gsradius":    {strconv.Itoa(radiusMeters)},
		"gsnamespace": {"6"},
		"gslimit":     {strconv.Itoa(geoSearchLimit)},
	}
	if err := c.getJSON(ctx, svcCommons, "geosearch", c.commonsURL(q), &gr); err != nil {
		return nil, fmt.Errorf("geosearch: %w", err)
	}
	return gr.Query.GeoSearch, nil
}

// ImagesNearCoordinates is NearbyFiles with failures collapsed to an empty list.
func (c *Client) ImagesNearCoordinates(ctx context.Context, lat, lng float64, radiusMeters int) []domain.GeoHit {
	hits, err := c.NearbyFiles(ctx, lat, lng, radiusMeters)
	if err != nil {
		log.Debug().Err(err).Float64("lat", lat).Float64("lng", lng).Msg("geosearch failed")
		return []domain.GeoHit{}
	}
	return hits
}

// ImageDetails fetches URL, size and MIME type of one Commons file.
func (c *Client) ImageDetails(ctx context.Context, fileName string) (*domain.Image, error) {
	if !strings.HasPrefix(fileName, "File:") && !strings.HasPrefix(fileName, "ファイル:") {
		fileName = "File:" + fileName
	}
	var pr pagesResp
	q := url.Values{
		"action":     {"query"},
		"titles":     {fileName},
		"prop":       {"imageinfo"},
		"iiprop":     {"url|size|mime|extmetadata"},
		"iiurlwidth": {strconv.Itoa(thumbWidth)},
	}
	if err := c.getJSON(ctx, svcCommons, "imageinfo", c.commonsURL(q), &pr); err != nil {
		return nil, err
	}
	for _, p := range pr.Query.Pages {
		if len(p.ImageInfo) == 0 || p.ImageInfo[0].URL == "" {
			continue
		}
		ii := p.ImageInfo[0]
		img := &domain.Image{
			Title:          p.Title,
			URL:            ii.URL,
			ThumbURL:       ptrStr(ii.ThumbURL),
			Width:          ii.Width,
			Height:         ii.Height,
			Mime:           ptrStr(ii.Mime),
			DescriptionURL: ptrStr(ii.DescriptionURL),
		}
		if img.Title == "" {
			img.Title = fileName
		}
		if d, ok := ii.ExtMetadata["ImageDescription"]; ok {
			img.Description = ptrStr(stripTags(d.Value))
		}
		return img, nil
	}
	return nil, ErrNotFound
}
