package services_test

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/rendezvous-csd/rendezvous-api/config"
	"github.com/rendezvous-csd/rendezvous-api/internal/cache"
	"github.com/rendezvous-csd/rendezvous-api/internal/services"
	"github.com/rendezvous-csd/rendezvous-api/pkg/jwt"
	"github.com/rendezvous-csd/rendezvous-api/pkg/logger"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func init() {
	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{
		Level:       "debug",
		Environment: "development",
	}); err != nil {
		panic(err)
	}
}

var defaultMarkers = config.RoleMarkerConfig{
	AdminMarker:   "admin",
	TAMarker:      "csdp",
	StudentMarker: "csd",
}

func newTokens() *jwt.TokenManager {
	return jwt.NewTokenManager("test-secret", "rendezvous-test", time.Hour)
}

func newSessionService() *services.SessionService {
	return services.NewSessionService(cache.NewSessionCache(time.Minute), newTokens())
}

// xlsx builds an in-memory workbook with the given rows on its first sheet
func xlsx(t *testing.T, rows ...[]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		r := row
		require.NoError(t, f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+1), &r))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}
