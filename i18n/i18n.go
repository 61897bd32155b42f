// Package i18n translates message codes returned by the API.
package i18n

import (
	"context"
	"strings"
)

const defaultLang = "fr"

type ctxKey struct{}

var messages = map[string]map[string]string{
	"fr": {
		"required":           "Requis",
		"gt":                 "Doit être supérieur",
		"gte":                "Doit être supérieur ou égal",
		"min":                "Trop court",
		"max":                "Trop long",
		"oneof":              "Valeur non autorisée",
		"must_be_positive":   "Doit être positif",
		"decimals":           "Trop de décimales",
		"invalid":            "Invalide",
		"invalid_json":       "Corps de requête JSON invalide",
		"invalid_id":         "Identifiant invalide",
		"validation_failed":  "Données invalides",
		"unauthorized":       "Authentification requise",
		"quote_not_found":    "Devis introuvable",
		"invoice_not_found":  "Facture introuvable",
		"product_not_found":  "Produit introuvable",
		"client_not_found":   "Client introuvable",
		"user_not_found":     "Utilisateur introuvable",
		"pos_not_found":      "Point de vente introuvable",
		"no_point_of_sale":   "Aucun point de vente indiqué et aucun point de vente par défaut",
		"empty_quote":        "Le devis ne contient aucune ligne",
		"conversion_state":   "Le devis ne peut pas être converti dans son état actuel",
		"conversion_busy":    "Le devis est en cours de conversion",
		"transition_invalid": "Changement de statut impossible",
		"invoice_state":      "Opération impossible dans l'état actuel de la facture",
		"insufficient_stock": "Stock insuffisant",
		"invalid_quantity":   "Quantité invalide",
		"overpayment":        "Le paiement dépasse le solde de la facture",
		"persistence_error":  "Erreur d'enregistrement, aucune modification n'a été appliquée",
		"internal_error":     "Erreur interne",
	},
	"en": {
		"required":           "Required",
		"gt":                 "Must be greater",
		"gte":                "Must be greater or equal",
		"min":                "Too short",
		"max":                "Too long",
		"oneof":              "Value not allowed",
		"must_be_positive":   "Must be positive",
		"decimals":           "Too many decimal places",
		"invalid":            "Invalid",
		"invalid_json":       "Invalid JSON body",
		"invalid_id":         "Invalid identifier",
		"validation_failed":  "Invalid data",
		"unauthorized":       "Authentication required",
		"quote_not_found":    "Quote not found",
		"invoice_not_found":  "Invoice not found",
		"product_not_found":  "Product not found",
		"client_not_found":   "Client not found",
		"user_not_found":     "User not found",
		"pos_not_found":      "Point of sale not found",
		"no_point_of_sale":   "No point of sale given and no default point of sale",
		"empty_quote":        "The quote has no line items",
		"conversion_state":   "The quote cannot be converted in its current status",
		"conversion_busy":    "The quote is being converted",
		"transition_invalid": "Status change not allowed",
		"invoice_state":      "Operation not allowed in the current invoice status",
		"insufficient_stock": "Insufficient stock",
		"invalid_quantity":   "Invalid quantity",
		"overpayment":        "Payment exceeds the invoice balance",
		"persistence_error":  "Storage failure, nothing was changed",
		"internal_error":     "Internal error",
	},
}

// DetectLanguage picks the first supported language of an Accept-Language header.
func DetectLanguage(acceptLanguage string) string {
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		base := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if _, ok := messages[base]; ok {
			return base
		}
	}
	return defaultLang
}

// T translates code. Unknown languages fall back to French, unknown codes to the code itself.
func T(lang, code string) string {
	if msg, ok := messages[lang][code]; ok {
		return msg
	}
	if msg, ok := messages[defaultLang][code]; ok {
		return msg
	}
	return code
}

// WithLang stores the request language.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, lang)
}

// LangFromContext returns the request language, or the default.
func LangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(ctxKey{}).(string); ok && lang != "" {
		return lang
	}
	return defaultLang
}
