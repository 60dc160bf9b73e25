package email

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/JoseAlvarezDev/BusCar/internal/entity"
)

// renderLimit caps how many matches one alert email lists; the remainder is
// summarized as a single "and N more" line.
const defaultRenderLimit = 10

var matchesTemplate = template.Must(template.New("alert_matches").Parse(`<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>Nuevos coches para tu alerta</h2>
  <p>Hemos encontrado {{.Total}} coches que encajan con tu búsqueda{{if .Criteria}} ({{.Criteria}}){{end}}:</p>
  <table cellpadding="6" cellspacing="0" border="0" style="border-collapse: collapse;">
    <tr style="background: #f0f0f0;">
      <th align="left">Coche</th>
      <th align="right">Precio</th>
      <th align="right">Año</th>
      <th align="right">Km</th>
      <th align="left">Lugar</th>
    </tr>
    {{range .Listings}}
    <tr style="border-bottom: 1px solid #ddd;">
      <td><a href="{{.URL}}">{{.Title}}</a></td>
      <td align="right">{{.Price}}</td>
      <td align="right">{{if .Year}}{{.Year}}{{else}}-{{end}}</td>
      <td align="right">{{if .KM}}{{.KM}}{{else}}-{{end}}</td>
      <td>{{.Location}}</td>
    </tr>
    {{end}}
  </table>
  {{if .More}}<p>... y {{.More}} coches más.</p>{{end}}
  <p style="color: #888; font-size: 12px;">Recibes este correo porque tienes una alerta activa en BusCar.</p>
</body>
</html>`))

type renderedListing struct {
	Title    string
	URL      string
	Price    string
	Year     int
	KM       int
	Location string
}

type matchesData struct {
	Total    int
	Criteria string
	Listings []renderedListing
	More     int
}

func listingTitle(l *entity.Listing) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{l.Brand, l.Model, l.Version} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return l.ExternalID
	}
	return strings.Join(parts, " ")
}

func formatPrice(price float64) string {
	return fmt.Sprintf("%.0f €", price)
}

func criteriaSummary(alert *entity.Alert) string {
	parts := make([]string, 0, 4)
	if alert.Brand != "" {
		if alert.Model != "" {
			parts = append(parts, alert.Brand+" "+alert.Model)
		} else {
			parts = append(parts, alert.Brand)
		}
	}
	if alert.MaxPrice > 0 {
		parts = append(parts, fmt.Sprintf("hasta %.0f €", alert.MaxPrice))
	}
	if alert.MinYear > 0 {
		parts = append(parts, fmt.Sprintf("desde %d", alert.MinYear))
	}
	if alert.MaxKM > 0 {
		parts = append(parts, fmt.Sprintf("máx %d km", alert.MaxKM))
	}
	return strings.Join(parts, ", ")
}

// RenderMatches produces the HTML and plain-text bodies for an alert email.
func RenderMatches(alert *entity.Alert, matches []*entity.Listing, renderLimit int) (html string, text string, err error) {
	if renderLimit <= 0 {
		renderLimit = defaultRenderLimit
	}

	shown := matches
	more := 0
	if len(matches) > renderLimit {
		shown = matches[:renderLimit]
		more = len(matches) - renderLimit
	}

	data := matchesData{
		Total:    len(matches),
		Criteria: criteriaSummary(alert),
		More:     more,
	}
	for _, l := range shown {
		data.Listings = append(data.Listings, renderedListing{
			Title:    listingTitle(l),
			URL:      l.URL,
			Price:    formatPrice(l.Price),
			Year:     l.Year,
			KM:       l.KM,
			Location: l.Location,
		})
	}

	var sb strings.Builder
	if err := matchesTemplate.Execute(&sb, data); err != nil {
		return "", "", fmt.Errorf("failed to render alert email: %w", err)
	}

	var tb strings.Builder
	fmt.Fprintf(&tb, "Hemos encontrado %d coches que encajan con tu búsqueda.\n\n", len(matches))
	for _, l := range data.Listings {
		fmt.Fprintf(&tb, "- %s | %s", l.Title, l.Price)
		if l.Year > 0 {
			fmt.Fprintf(&tb, " | %d", l.Year)
		}
		if l.KM > 0 {
			fmt.Fprintf(&tb, " | %d km", l.KM)
		}
		fmt.Fprintf(&tb, "\n  %s\n", l.URL)
	}
	if more > 0 {
		fmt.Fprintf(&tb, "\n... y %d coches más.\n", more)
	}

	return sb.String(), tb.String(), nil
}
