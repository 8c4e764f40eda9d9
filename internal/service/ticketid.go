package service

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/opsdesk/helpdesk/internal/domain"
)

const (
	ticketNumberDigits = 8
	maxNumberAttempts  = 5
)

// servicePrefix maps the service type to the identifier prefix. Unknown
// service types fall back to GEN and are logged as unexpected.
func servicePrefix(serviceType domain.ServiceType, logger *zap.Logger) string {
	switch serviceType {
	case domain.ServiceTypeService:
		return "SR"
	case domain.ServiceTypeIncident:
		return "IN"
	default:
		logger.Warn("unexpected service type for identifier prefix",
			zap.String("service_type", string(serviceType)))
		return "GEN"
	}
}

func randomTicketNumber() string {
	return fmt.Sprintf("%0*d", ticketNumberDigits, rand.Intn(100000000))
}
