package parsers

import (
	"strings"

	"payment-import-service/internal/models"
)

// Label classification folds the provider's free-text, bilingual status
// and type labels into the canonical enumerations. The vocabulary below
// is the complete set of labels observed in bePaid exports; anything
// outside it maps to StatusUnresolved so the import never fabricates a
// status.

var statusVocabulary = []struct {
	keyword string
	status  models.CanonicalStatus
}{
	// Order matters: refund labels contain no status keyword overlap,
	// but "неуспешн" must be checked before "успешн".
	{"неуспешн", models.StatusFailed},
	{"успешн", models.StatusSuccessful},
	{"successful", models.StatusSuccessful},
	{"succeeded", models.StatusSuccessful},
	{"success", models.StatusSuccessful},
	{"ошибк", models.StatusFailed},
	{"failed", models.StatusFailed},
	{"error", models.StatusFailed},
	{"declined", models.StatusFailed},
	{"отклонен", models.StatusFailed},
	{"в обработке", models.StatusPending},
	{"ожидан", models.StatusPending},
	{"pending", models.StatusPending},
	{"processing", models.StatusPending},
	{"просрочен", models.StatusExpired},
	{"истек", models.StatusExpired},
	{"expired", models.StatusExpired},
	{"возвращен", models.StatusRefunded},
	{"refunded", models.StatusRefunded},
}

// ClassifyStatus maps a row's status to its canonical value. The status
// column is authoritative; when it alone does not resolve, the provider's
// free-text message is tried against the same vocabulary, since some
// exports carry the outcome only there. Unrecognized labels return
// StatusUnresolved, never a guess.
func ClassifyStatus(rawStatus, rawMessage string) models.CanonicalStatus {
	if status := classifyStatusLabel(rawStatus); status != models.StatusUnresolved {
		return status
	}
	return classifyStatusLabel(rawMessage)
}

func classifyStatusLabel(raw string) models.CanonicalStatus {
	label := strings.ToLower(strings.TrimSpace(raw))
	if label == "" {
		return models.StatusUnresolved
	}
	for _, entry := range statusVocabulary {
		if strings.Contains(label, entry.keyword) {
			return entry.status
		}
	}
	return models.StatusUnresolved
}

var typeVocabulary = []struct {
	keyword string
	txType  models.TransactionType
}{
	{"возврат", models.TypeRefund},
	{"refund", models.TypeRefund},
	{"отмен", models.TypeCancel},
	{"cancel", models.TypeCancel},
	{"void", models.TypeCancel},
	{"комисс", models.TypeFee},
	{"fee", models.TypeFee},
	{"chargeback", models.TypeRefund},
}

// ClassifyType folds a free-text type label into the closed transaction
// type set. The ERIP detector (dedicated column present, or the payment
// method naming the channel) overrides the default card-payment
// inference for payment rows.
func ClassifyType(rawType, paymentMethod string, hasERIP bool) models.TransactionType {
	label := strings.ToLower(strings.TrimSpace(rawType))
	for _, entry := range typeVocabulary {
		if strings.Contains(label, entry.keyword) {
			return entry.txType
		}
	}

	if hasERIP || isERIPMethod(paymentMethod) || strings.Contains(label, "erip") || strings.Contains(label, "ерип") {
		return models.TypePaymentERIP
	}

	return models.TypePaymentCard
}

func isERIPMethod(paymentMethod string) bool {
	method := strings.ToLower(strings.TrimSpace(paymentMethod))
	return strings.Contains(method, "erip") || strings.Contains(method, "ерип")
}
