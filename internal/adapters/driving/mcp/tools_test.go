package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vetta/internal/core/domain"
	"github.com/custodia-labs/vetta/internal/core/ports/driving"
)

func TestServer_handleVet(t *testing.T) {
	ctx := context.Background()

	t.Run("returns dossier and summary", func(t *testing.T) {
		vetting := &mockVettingService{
			result: &driving.VetResult{
				Result:  &domain.PipelineResult{RunID: "run-1"},
				Dossier: "COMPANY: Acme\n",
				Summary: domain.Summary{Success: 1, Total: 1},
			},
		}
		server, err := NewServer(&Ports{Vetting: vetting})
		require.NoError(t, err)

		_, output, err := server.handleVet(ctx, nil, VetInput{
			CompanyName: "Acme",
			Domain:      "acme.com",
			ABN:         "51 824 753 556",
		})
		require.NoError(t, err)

		assert.Equal(t, "run-1", output.RunID)
		assert.Equal(t, "COMPANY: Acme\n", output.Dossier)
		assert.Equal(t, 1, output.Summary.Success)
		assert.Empty(t, output.ReportError)
		assert.Equal(t, domain.FetchRequest{
			CompanyName:    "Acme",
			Domain:         "acme.com",
			RegistryNumber: "51 824 753 556",
		}, vetting.gotReq)
		assert.False(t, vetting.gotOpts.Report)
	})

	t.Run("report error is reported, not returned", func(t *testing.T) {
		vetting := &mockVettingService{
			result: &driving.VetResult{
				Result:    &domain.PipelineResult{RunID: "run-2"},
				ReportErr: domain.ErrReportUnavailable,
			},
		}
		server, err := NewServer(&Ports{Vetting: vetting})
		require.NoError(t, err)

		_, output, err := server.handleVet(ctx, nil, VetInput{CompanyName: "Acme", Report: true})
		require.NoError(t, err)

		assert.True(t, vetting.gotOpts.Report)
		assert.Equal(t, domain.ErrReportUnavailable.Error(), output.ReportError)
	})

	t.Run("invalid request is an error", func(t *testing.T) {
		vetting := &mockVettingService{err: errors.New("invalid request: company name is required")}
		server, err := NewServer(&Ports{Vetting: vetting})
		require.NoError(t, err)

		_, _, err = server.handleVet(ctx, nil, VetInput{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "company name is required")
	})
}
