package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/sidecarhost/internal/api/models"
	"github.com/smazurov/sidecarhost/internal/metrics"
)

func (s *Server) registerBackendRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-backend-port",
		Method:      http.MethodGet,
		Path:        "/api/backend/port",
		Summary:     "Backend Port",
		Description: "Return the backend port, waiting up to the given timeout for the handshake. " +
			"A timeout is reported as known=false, not as an error.",
		Tags:     []string{"backend"},
		Security: withAuth(),
		Errors:   []int{401, 422},
	}, func(ctx context.Context, input *models.PortRequest) (*models.PortResponse, error) {
		timeout := s.options.QueryTimeout
		if input.Timeout != "" {
			parsed, err := time.ParseDuration(input.Timeout)
			if err != nil {
				return nil, huma.Error422UnprocessableEntity("invalid timeout", err)
			}
			timeout = parsed
		}
		if timeout < 0 {
			return nil, huma.Error422UnprocessableEntity("timeout must not be negative")
		}
		timeout = min(timeout, s.options.MaxQueryTimeout)

		resp := &models.PortResponse{}
		if port, ok := s.options.Backend.QueryPort(ctx, timeout, s.options.QueryInterval); ok {
			resp.Body = models.PortData{Port: &port, Known: true}
		}
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-backend-status",
		Method:      http.MethodGet,
		Path:        "/api/backend/status",
		Summary:     "Backend Status",
		Description: "Launch mode, port, child process state and shutdown state",
		Tags:        []string{"backend"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.StatusResponse, error) {
		st := s.options.Backend.Status()
		counters := metrics.GetSnapshot()

		data := models.StatusData{
			Mode:              st.Mode,
			Known:             st.PortKnown,
			PID:               st.PID,
			Running:           st.Running,
			Closing:           st.Closing,
			HandshakeAccepted: counters.HandshakeAccepted,
			HandshakeRejected: counters.HandshakeRejected,
			Exits:             counters.Exits,
		}
		if st.PortKnown {
			port := st.Port
			data.Port = &port
		}
		return &models.StatusResponse{Body: data}, nil
	})
}

func (s *Server) registerWindowRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "close-window",
		Method:        http.MethodPost,
		Path:          "/api/window/close",
		Summary:       "Close Window",
		Description:   "Ask the host window to close. The backend is terminated before the host exits.",
		Tags:          []string{"window"},
		DefaultStatus: http.StatusAccepted,
		Security:      withAuth(),
		Errors:        []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.CloseWindowResponse, error) {
		accepted := s.options.Window.RequestClose("api")
		s.logger.Info("Window close requested via API", "accepted", accepted)
		return &models.CloseWindowResponse{
			Body: models.CloseWindowData{Accepted: accepted},
		}, nil
	})
}
