package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentworkforce/seqfield/sequence"
)

func TestBuildStoreFromDSNMemory(t *testing.T) {
	st, err := BuildStoreFromDSN("memory://")
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, st)
}

func TestBuildStoreFromDSNPostgres(t *testing.T) {
	st, err := BuildStoreFromDSN("postgres://localhost/seqfield?sslmode=disable")
	require.NoError(t, err)
	sqlStore, ok := st.(*SQLStore)
	require.True(t, ok)
	require.Equal(t, "postgres", sqlStore.dialect.driver)
}

func TestBuildStoreFromDSNSQLite(t *testing.T) {
	for _, dsn := range []string{
		"sqlite://seqfield.db",
		"sqlite::memory:",
		"sqlite:file:seqfield.db?cache=shared",
	} {
		st, err := BuildStoreFromDSN(dsn)
		require.NoError(t, err, dsn)
		sqlStore, ok := st.(*SQLStore)
		require.True(t, ok, dsn)
		require.Equal(t, "sqlite", sqlStore.dialect.driver, dsn)
	}
}

func TestBuildStoreFromDSNSQLitePath(t *testing.T) {
	st, err := BuildStoreFromDSN("sqlite://data/seqfield.db")
	require.NoError(t, err)
	require.Equal(t, "data/seqfield.db", st.(*SQLStore).dsn)
}

func TestBuildStoreFromDSNUnsupported(t *testing.T) {
	_, err := BuildStoreFromDSN("mysql://localhost/seqfield")
	require.Error(t, err)

	_, err = BuildStoreFromDSN("   ")
	require.ErrorIs(t, err, sequence.ErrInvalidInput)
}

func TestRegisterStoreFactoryOverride(t *testing.T) {
	custom := NewMemoryStore()
	RegisterStoreFactory("fakedb", func(dsn string) (sequence.Store, error) {
		return custom, nil
	})
	st, err := BuildStoreFromDSN("fakedb://whatever")
	require.NoError(t, err)
	require.Same(t, custom, st)
}
