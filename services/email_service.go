package services

import (
	"fmt"
	"net/smtp"
	"os"
	"strings"

	"fluxachat/config"
	"fluxachat/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// convertHTMLToText converts HTML content to plain text for email sending
func convertHTMLToText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		// If parsing fails, return the original content
		return htmlContent
	}

	var text strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			text.WriteString(n.Data)
		case html.ElementNode:
			// Add line breaks for block elements
			switch n.Data {
			case "p", "div", "br", "h1", "h2", "h3", "h4", "h5", "h6":
				text.WriteString("\n")
			case "li":
				text.WriteString("- ")
			case "table", "tr":
				text.WriteString("\n")
			case "td", "th":
				text.WriteString(" | ")
			}
		}

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			extractText(child)
		}
	}

	extractText(doc)

	result := text.String()
	result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	result = strings.TrimSpace(result)

	return result
}

// EmailService sends the supplier-facing consultation emails over SMTP. It
// implements InvitationMailer and RelanceMailer; sends run asynchronously so
// a slow SMTP server never blocks a state transition.
type EmailService struct {
	cfg  *config.Provider
	log  *logrus.Logger
	host string
	port string
	from string
	user string
	pass string
}

// NewEmailService reads the SMTP settings from the environment.
func NewEmailService(cfg *config.Provider, log *logrus.Logger) *EmailService {
	return &EmailService{
		cfg:  cfg,
		log:  log,
		host: os.Getenv("SMTP_HOST"),
		port: os.Getenv("SMTP_PORT"),
		from: os.Getenv("SMTP_FROM"),
		user: os.Getenv("SMTP_USER"),
		pass: os.Getenv("SMTP_PASSWORD"),
	}
}

const invitationTemplate = `<h2>Demande de cotation {{numero_rfq}}</h2>
<p>Bonjour {{nom_fournisseur}},</p>
<p>Merci de bien vouloir nous transmettre votre meilleure offre pour les articles ci-dessous avant le {{date_limite}}.</p>
{{tableau_articles}}
<p><a href="{{lien_formulaire}}">Repondre en ligne</a></p>
<p>Service Achats</p>
<img src="{{lien_pixel}}" width="1" height="1" alt=""/>`

const relanceTemplate = `<h2>Relance {{num_relance}} : demande de cotation {{numero_rfq}}</h2>
<p>Bonjour {{nom_fournisseur}},</p>
<p>Sauf erreur de notre part, nous restons sans reponse sur la consultation {{numero_rfq}}. Merci de nous repondre avant le {{date_limite}}.</p>
<p><a href="{{lien_formulaire}}">Repondre en ligne</a></p>
<p>Service Achats</p>
<img src="{{lien_pixel}}" width="1" height="1" alt=""/>`

// SendInvitation emails the consultation to the supplier. Fire-and-forget.
func (es *EmailService) SendInvitation(rfq *models.RFQ) {
	subject := fmt.Sprintf("Demande de cotation %s", rfq.NumeroRFQ)
	body := es.processTemplate(invitationTemplate, rfq, 0)
	es.sendAsync(rfq, subject, body)
}

// SendRelance emails the chase notification. Fire-and-forget.
func (es *EmailService) SendRelance(rfq *models.RFQ, numRelance int) {
	subject := fmt.Sprintf("Relance %d : demande de cotation %s", numRelance, rfq.NumeroRFQ)
	body := es.processTemplate(relanceTemplate, rfq, numRelance)
	es.sendAsync(rfq, subject, body)
}

func (es *EmailService) sendAsync(rfq *models.RFQ, subject, body string) {
	if es.host == "" || rfq.EmailFournisseur == "" {
		es.log.WithField("rfq", rfq.NumeroRFQ).Warn("email: SMTP non configure ou destinataire absent, envoi ignore")
		return
	}
	to := rfq.EmailFournisseur
	numero := rfq.NumeroRFQ
	go func() {
		if err := es.sendEmail(to, subject, body, nil, nil); err != nil {
			es.log.WithError(err).WithField("rfq", numero).Error("email: envoi echoue")
		}
	}()
}

// processTemplate substitutes the {{...}} placeholders of a template.
func (es *EmailService) processTemplate(templateStr string, rfq *models.RFQ, numRelance int) string {
	base := es.cfg.GetString(config.KeyPublicFormBaseURL)
	limite := ""
	if rfq.DateLimiteReponse != nil {
		limite = rfq.DateLimiteReponse.Format("02/01/2006")
	}
	variables := map[string]string{
		"numero_rfq":       rfq.NumeroRFQ,
		"nom_fournisseur":  rfq.NomFournisseur,
		"date_limite":      limite,
		"num_relance":      fmt.Sprintf("%d", numRelance),
		"lien_formulaire":  fmt.Sprintf("%s/%s", base, rfq.UUID),
		"lien_pixel":       fmt.Sprintf("%s/api/track/open/%s", strings.TrimSuffix(base, "/cotation"), rfq.UUID),
		"tableau_articles": buildLinesTable(rfq.Lignes),
	}

	result := templateStr
	for key, value := range variables {
		placeholder := fmt.Sprintf("{{%s}}", key)
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return result
}

func buildLinesTable(lines []models.QuoteLine) string {
	var b strings.Builder
	b.WriteString("<table><tr><th>Article</th><th>Designation</th><th>Quantite</th><th>Unite</th><th>Marque souhaitee</th></tr>")
	for _, l := range lines {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%g</td><td>%s</td><td>%s</td></tr>",
			l.CodeArticle, l.DesignationArticle, l.QuantiteDemandee, l.Unite, l.MarqueSouhaitee)
	}
	b.WriteString("</table>")
	return b.String()
}

// sendEmail sends an email using SMTP with optional CC and BCC. The HTML body
// is sent as-is with a plain text fallback derived from it.
func (es *EmailService) sendEmail(to, subject, htmlBody string, cc, bcc []string) error {
	auth := smtp.PlainAuth("", es.user, es.pass, es.host)

	toList := []string{to}
	if len(cc) > 0 {
		toList = append(toList, cc...)
	}
	if len(bcc) > 0 {
		toList = append(toList, bcc...)
	}

	headers := []string{
		"From: " + es.from,
		"To: " + to,
	}
	if len(cc) > 0 {
		headers = append(headers, "Cc: "+strings.Join(cc, ", "))
	}
	headers = append(headers,
		"Subject: "+subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
		htmlBody,
	)

	msg := []byte(strings.Join(headers, "\r\n") + "\r\n")

	return smtp.SendMail(es.host+":"+es.port, auth, es.from, toList, msg)
}

// PreviewAsText renders a template to the plain text a mail client without
// HTML support would show.
func (es *EmailService) PreviewAsText(rfq *models.RFQ, numRelance int) string {
	tmpl := invitationTemplate
	if numRelance > 0 {
		tmpl = relanceTemplate
	}
	return convertHTMLToText(es.processTemplate(tmpl, rfq, numRelance))
}
