package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"medsync/internal/models"
	"medsync/internal/service"
)

// ---- Service Mocks ----

type mockRunner struct {
	run   models.SyncRun
	err   error
	calls int
}

func (m *mockRunner) Run(ctx context.Context) (models.SyncRun, error) {
	m.calls++
	return m.run, m.err
}

type mockHistory struct {
	resp       []models.SyncRun
	err        error
	lastFilter service.RunFilter
}

func (m *mockHistory) List(ctx context.Context, f service.RunFilter) ([]models.SyncRun, error) {
	m.lastFilter = f
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service, apiToken string) *gin.Engine {
	h := NewHandler(s, apiToken, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func bearer(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
}

func sampleRun(id string, started time.Time) models.SyncRun {
	return models.SyncRun{
		RunID:      id,
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Status:     models.RunStatusOK,
		Reconcile:  models.ReconcileReport{RemoteFetched: 5, LocalCount: 5},
		Qualify:    models.QualifyReport{Scanned: 5},
	}
}
