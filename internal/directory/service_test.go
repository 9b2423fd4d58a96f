package directory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tandemflight-backend/internal/testdb"
	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tandemflight-backend/pkg/errors"
)

func TestGetPilotAndCompany(t *testing.T) {
	conn := testdb.Open(t)
	company := testdb.SeedCompany(t, conn, enums.LocaleTR)
	pilot := testdb.SeedPilot(t, conn, &company.ID, enums.LocaleDE)

	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	gotPilot, err := svc.GetPilot(context.Background(), pilot.ID)
	require.NoError(t, err)
	require.Equal(t, enums.LocaleDE, gotPilot.Locale)
	require.Equal(t, company.ID, *gotPilot.CompanyID)

	gotCompany, err := svc.GetCompany(context.Background(), company.ID)
	require.NoError(t, err)
	require.Equal(t, company.Name, gotCompany.Name)
}

func TestGetMissingTargetsReturnNotFound(t *testing.T) {
	conn := testdb.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	_, err = svc.GetPilot(context.Background(), uuid.New())
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	_, err = svc.GetCompany(context.Background(), uuid.New())
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	_, err = svc.GetPilot(context.Background(), uuid.Nil)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}
