package service_test

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/straye-as/contact-distribution-api/internal/domain"
	"github.com/straye-as/contact-distribution-api/internal/metrics"
	"github.com/straye-as/contact-distribution-api/internal/service"
	"github.com/straye-as/contact-distribution-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestPartition(t *testing.T) {
	for n := 0; n <= 25; n++ {
		records := testutil.NewContacts(n)
		for k := 1; k <= 7; k++ {
			parts := service.Partition(records, k)
			require.Len(t, parts, k, "n=%d k=%d", n, k)

			var joined []domain.ContactRecord
			minSize, maxSize := n+1, -1
			for _, p := range parts {
				joined = append(joined, p...)
				if len(p) < minSize {
					minSize = len(p)
				}
				if len(p) > maxSize {
					maxSize = len(p)
				}
			}
			assert.Len(t, joined, n)
			assert.LessOrEqual(t, maxSize-minSize, 1, "n=%d k=%d", n, k)
			if n > 0 {
				assert.Equal(t, records, joined, "order preserved for n=%d k=%d", n, k)
			}
			for i := 0; i < n%k; i++ {
				assert.Len(t, parts[i], n/k+1, "leading slices carry the remainder")
			}
		}
	}

	assert.Nil(t, service.Partition(testutil.NewContacts(3), 0))
}

func TestPartition_Example(t *testing.T) {
	records := testutil.NewContacts(5)
	parts := service.Partition(records, 3)
	assert.Equal(t, [][]domain.ContactRecord{records[0:2], records[2:4], records[4:5]}, parts)
}

func TestDistributionService_Distribute(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	owner := testutil.CreateOwner(t, env.db)
	older := testutil.CreateAgent(t, env.db, owner, "AGT001")
	inactive := testutil.CreateAgent(t, env.db, owner, "AGT002")
	newer := testutil.CreateAgent(t, env.db, owner, "AGT003")
	testutil.Deactivate(t, env.db, inactive)
	records := testutil.NewContacts(5)

	summary, err := env.distribution.Distribute(ctx, testutil.CallerOf(owner), records, "leads.csv")
	require.NoError(t, err)

	assert.Equal(t, 5, summary.TotalItems)
	assert.Equal(t, 2, summary.TotalTargets)
	assert.Equal(t, domain.RoleAgent, summary.TargetRole)
	require.Len(t, summary.Batches, 2)

	assert.Equal(t, newer.ID, summary.Batches[0].TargetID, "newest subordinate receives the first slice")
	assert.Equal(t, records[:3], summary.Batches[0].Items)
	assert.Equal(t, older.ID, summary.Batches[1].TargetID)
	assert.Equal(t, records[3:], summary.Batches[1].Items)

	for _, b := range summary.Batches {
		assert.Equal(t, summary.UploadID, b.UploadID)
		assert.Equal(t, "leads.csv", b.SourceFileName)
		assert.Equal(t, owner.ID, b.CreatedBy)
		assert.Equal(t, len(b.Items), b.TotalItems)
	}
	assert.Equal(t, newer.Email, summary.Batches[0].TargetEmail)
	assert.Equal(t, newer.Name, summary.Batches[0].TargetName)
}

func TestDistributionService_SnapshotSurvivesRename(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	owner := testutil.CreateOwner(t, env.db)
	agent := testutil.CreateAgent(t, env.db, owner, "AGT001")
	originalName := agent.Name

	_, err := env.distribution.Distribute(ctx, testutil.CallerOf(owner), testutil.NewContacts(2), "a.csv")
	require.NoError(t, err)

	newName := "Renamed Agent"
	_, err = env.hierarchy.UpdatePrincipal(ctx, testutil.CallerOf(owner), agent.ID, &domain.UpdatePrincipalRequest{Name: &newName})
	require.NoError(t, err)

	batches, err := env.distribution.ListBatches(ctx, testutil.CallerOf(owner), "all")
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, originalName, batches[0].TargetName)
}

func TestDistributionService_FewerRecordsThanTargets(t *testing.T) {
	env := setupEnv(t)
	owner := testutil.CreateOwner(t, env.db)
	for i := 1; i <= 3; i++ {
		testutil.CreateAgent(t, env.db, owner, domain.FormatAgentNumber(i))
	}

	summary, err := env.distribution.Distribute(context.Background(), testutil.CallerOf(owner), testutil.NewContacts(1), "one.csv")
	require.NoError(t, err)
	require.Len(t, summary.Batches, 3)
	assert.Len(t, summary.Batches[0].Items, 1)
	assert.NotNil(t, summary.Batches[2].Items)
	assert.Empty(t, summary.Batches[2].Items)
}

func TestDistributionService_NoEligibleTargets(t *testing.T) {
	env := setupEnv(t)
	owner := testutil.CreateOwner(t, env.db)
	agent := testutil.CreateAgent(t, env.db, owner, "AGT001")
	testutil.Deactivate(t, env.db, agent)

	_, err := env.distribution.Distribute(context.Background(), testutil.CallerOf(owner), testutil.NewContacts(4), "x.csv")
	assert.ErrorIs(t, err, service.ErrNoEligibleTargets)

	var count int64
	require.NoError(t, env.db.Model(&domain.DistributionBatch{}).Count(&count).Error)
	assert.Zero(t, count, "nothing is persisted")
}

func TestDistributionService_SubAgentCannotDistribute(t *testing.T) {
	env := setupEnv(t)
	owner := testutil.CreateOwner(t, env.db)
	agent := testutil.CreateAgent(t, env.db, owner, "AGT001")
	sub := testutil.CreateSubAgent(t, env.db, agent)

	_, err := env.distribution.Distribute(context.Background(), testutil.CallerOf(sub), testutil.NewContacts(1), "x.csv")
	assert.ErrorIs(t, err, service.ErrAuthorization)

	_, err = env.distribution.UploadAndDistribute(context.Background(), testutil.CallerOf(sub), "x.csv", strings.NewReader("Name,Phone\nA,1\n"))
	assert.ErrorIs(t, err, service.ErrAuthorization)
}

func TestDistributionService_AgentDistributesToSubAgents(t *testing.T) {
	env := setupEnv(t)
	owner := testutil.CreateOwner(t, env.db)
	agent := testutil.CreateAgent(t, env.db, owner, "AGT001")
	sub := testutil.CreateSubAgent(t, env.db, agent)

	summary, err := env.distribution.Distribute(context.Background(), testutil.CallerOf(agent), testutil.NewContacts(2), "x.csv")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSubAgent, summary.TargetRole)
	require.Len(t, summary.Batches, 1)
	assert.Equal(t, sub.ID, summary.Batches[0].TargetID)

	assigned, err := env.distribution.ListAssigned(context.Background(), testutil.CallerOf(sub))
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Len(t, assigned[0].Items, 2)
}

func assertStagingEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staged upload must be removed")
}

func TestDistributionService_UploadAndDistributeCSV(t *testing.T) {
	env := setupEnv(t)
	owner := testutil.CreateOwner(t, env.db)
	testutil.CreateAgent(t, env.db, owner, "AGT001")
	testutil.CreateAgent(t, env.db, owner, "AGT002")

	csv := "Name,Mobile,Note\nOla,+4791234567,Call after 5\n,+4700000000,missing name\nKari,+4798765432,\n"
	summary, err := env.distribution.UploadAndDistribute(context.Background(), testutil.CallerOf(owner), "leads.csv", strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalItems)
	require.Len(t, summary.Batches, 2)
	assert.Equal(t, []domain.ContactRecord{{FirstName: "Ola", Phone: "+4791234567", Notes: "Call after 5"}}, summary.Batches[0].Items)
	assert.Equal(t, []domain.ContactRecord{{FirstName: "Kari", Phone: "+4798765432"}}, summary.Batches[1].Items)
	assertStagingEmpty(t, env.stagingDir)
}

func TestDistributionService_UploadAndDistributeXLSX(t *testing.T) {
	env := setupEnv(t)
	owner := testutil.CreateOwner(t, env.db)
	testutil.CreateAgent(t, env.db, owner, "AGT001")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"FirstName", "Phone Number"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Per", "41234567"}))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	summary, err := env.distribution.UploadAndDistribute(context.Background(), testutil.CallerOf(owner), "leads.xlsx", &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalItems)
	assert.Equal(t, "Per", summary.Batches[0].Items[0].FirstName)
	assertStagingEmpty(t, env.stagingDir)
}

func TestDistributionService_UploadRejections(t *testing.T) {
	env := setupEnv(t)
	owner := testutil.CreateOwner(t, env.db)
	testutil.CreateAgent(t, env.db, owner, "AGT001")
	caller := testutil.CallerOf(owner)

	tests := []struct {
		name     string
		fileName string
		body     string
		wantErr  error
	}{
		{"missing file name", "", "Name,Phone\nA,1\n", service.ErrValidation},
		{"unsupported extension", "leads.pdf", "%PDF", service.ErrUnsupportedFileType},
		{"too large", "big.csv", "Name,Phone\n" + strings.Repeat("A,1\n", testMaxUploadBytes/4+1), service.ErrFileTooLarge},
		{"no valid rows", "empty.csv", "Name,Phone\n,123\nBob,\n", service.ErrNoValidRows},
		{"header only", "header.csv", "Name,Phone\n", service.ErrNoValidRows},
		{"corrupt workbook", "broken.xlsx", "not a zip archive", service.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.distribution.UploadAndDistribute(context.Background(), caller, tt.fileName, strings.NewReader(tt.body))
			assert.ErrorIs(t, err, tt.wantErr)
			assertStagingEmpty(t, env.stagingDir)
		})
	}

	var count int64
	require.NoError(t, env.db.Model(&domain.DistributionBatch{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDistributionService_UploadRejectionsCountedByReason(t *testing.T) {
	env := setupEnv(t)
	owner := testutil.CreateOwner(t, env.db)
	caller := testutil.CallerOf(owner)

	tests := []struct {
		name     string
		fileName string
		body     string
		reason   string
	}{
		{"unsupported extension", "leads.pdf", "%PDF", metrics.ReasonUnsupportedFileType},
		{"no valid rows", "empty.csv", "Name,Phone\n,123\n", metrics.ReasonNoValidRows},
		{"missing file name", "", "Name,Phone\nA,1\n", metrics.ReasonValidation},
		{"no agents", "leads.csv", "Name,Phone\nA,1\n", metrics.ReasonNoEligibleTargets},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := metrics.UploadsTotal.WithLabelValues(metrics.OutcomeRejected, tt.reason)
			before := promtest.ToFloat64(counter)

			_, err := env.distribution.UploadAndDistribute(context.Background(), caller, tt.fileName, strings.NewReader(tt.body))
			require.Error(t, err)
			assert.Equal(t, before+1, promtest.ToFloat64(counter))
		})
	}

	testutil.CreateAgent(t, env.db, owner, "AGT001")
	distributed := metrics.UploadsTotal.WithLabelValues(metrics.OutcomeDistributed, metrics.ReasonNone)
	before := promtest.ToFloat64(distributed)
	_, err := env.distribution.UploadAndDistribute(context.Background(), caller, "leads.csv", strings.NewReader("Name,Phone\nA,1\n"))
	require.NoError(t, err)
	assert.Equal(t, before+1, promtest.ToFloat64(distributed))
}

func TestDistributionService_ListBatches(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	owner := testutil.CreateOwner(t, env.db)
	otherOwner := testutil.CreateOwner(t, env.db)
	a1 := testutil.CreateAgent(t, env.db, owner, "AGT001")
	a2 := testutil.CreateAgent(t, env.db, owner, "AGT002")
	foreign := testutil.CreateAgent(t, env.db, otherOwner, "AGT003")
	caller := testutil.CallerOf(owner)

	_, err := env.distribution.Distribute(ctx, caller, testutil.NewContacts(4), "a.csv")
	require.NoError(t, err)

	all, err := env.distribution.ListBatches(ctx, caller, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	forA1, err := env.distribution.ListBatches(ctx, caller, a1.ID.String())
	require.NoError(t, err)
	require.Len(t, forA1, 1)
	assert.Equal(t, a1.ID, forA1[0].TargetID)

	forA2, err := env.distribution.ListBatches(ctx, caller, a2.ID.String())
	require.NoError(t, err)
	assert.Len(t, forA2, 1)

	_, err = env.distribution.ListBatches(ctx, caller, foreign.ID.String())
	assert.ErrorIs(t, err, service.ErrNotFoundOrForbidden)

	_, err = env.distribution.ListBatches(ctx, caller, owner.ID.String())
	assert.ErrorIs(t, err, service.ErrNotFoundOrForbidden, "self is not a target")

	_, err = env.distribution.ListBatches(ctx, caller, "not-a-uuid")
	assert.ErrorIs(t, err, service.ErrValidation)

	otherView, err := env.distribution.ListBatches(ctx, testutil.CallerOf(otherOwner), "all")
	require.NoError(t, err)
	assert.Empty(t, otherView)
}

func TestDistributionService_DeleteBatch(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	owner := testutil.CreateOwner(t, env.db)
	otherOwner := testutil.CreateOwner(t, env.db)
	testutil.CreateAgent(t, env.db, owner, "AGT001")
	caller := testutil.CallerOf(owner)

	summary, err := env.distribution.Distribute(ctx, caller, testutil.NewContacts(2), "a.csv")
	require.NoError(t, err)
	batchID := summary.Batches[0].ID

	assert.ErrorIs(t, env.distribution.DeleteBatch(ctx, testutil.CallerOf(otherOwner), batchID), service.ErrNotFoundOrForbidden)

	require.NoError(t, env.distribution.DeleteBatch(ctx, caller, batchID))
	assert.ErrorIs(t, env.distribution.DeleteBatch(ctx, caller, batchID), service.ErrNotFoundOrForbidden)
	assert.ErrorIs(t, env.distribution.DeleteBatch(ctx, caller, uuid.New()), service.ErrNotFoundOrForbidden)

	remaining, err := env.distribution.ListBatches(ctx, caller, "all")
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
