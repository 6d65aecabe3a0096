package screens_test

import (
	"context"
	"errors"
	"testing"

	"atm-admin/internal/screens"
	"atm-admin/shared/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOperatorInfoPage(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults when namespace is empty", func(t *testing.T) {
		src := new(mockDataSource)
		src.On("GetData", ctx).Return(dataWith(map[string]any{"commissions_cashIn": 1.0}), nil).Once()
		page := screens.NewOperatorInfoPage(src, zap.NewNop())

		view, err := page.Load(ctx)

		require.NoError(t, err)
		assert.Equal(t, screens.DefaultContactInfo(), view.Record)
	})

	t.Run("loads stored record", func(t *testing.T) {
		src := new(mockDataSource)
		src.On("GetData", ctx).Return(dataWith(map[string]any{
			"operatorInfo_active": true,
			"operatorInfo_name":   "Satoshi ATM",
			"operatorInfo_email":  "ops@example.com",
		}), nil).Once()
		page := screens.NewOperatorInfoPage(src, zap.NewNop())

		view, err := page.Load(ctx)

		require.NoError(t, err)
		assert.Equal(t, screens.ContactInfo{Active: true, Name: "Satoshi ATM", Email: "ops@example.com"}, view.Record)
	})

	t.Run("value of unexpected type keeps default and the rest loads", func(t *testing.T) {
		src := new(mockDataSource)
		src.On("GetData", ctx).Return(dataWith(map[string]any{
			"operatorInfo_active": "yes",
			"operatorInfo_name":   "Satoshi ATM",
		}), nil).Once()
		page := screens.NewOperatorInfoPage(src, zap.NewNop())

		view, err := page.Load(ctx)

		require.NoError(t, err)
		expected := screens.DefaultContactInfo()
		expected.Name = "Satoshi ATM"
		assert.Equal(t, expected, view.Record)
	})

	t.Run("save writes the whole namespaced record", func(t *testing.T) {
		src := new(mockDataSource)
		record := screens.ContactInfo{Active: true, Name: "Satoshi ATM", Phone: "+15550100", Website: "https://example.com"}
		src.On("SaveConfig", ctx, map[string]any{
			"operatorInfo_active":        true,
			"operatorInfo_name":          "Satoshi ATM",
			"operatorInfo_phone":         "+15550100",
			"operatorInfo_email":         "",
			"operatorInfo_website":       "https://example.com",
			"operatorInfo_companyNumber": "",
		}).Return(map[string]any{}, nil).Once()
		page := screens.NewOperatorInfoPage(src, zap.NewNop())

		require.NoError(t, page.Save(ctx, record))
		src.AssertExpectations(t)
	})

	t.Run("active record requires a name", func(t *testing.T) {
		src := new(mockDataSource)
		page := screens.NewOperatorInfoPage(src, zap.NewNop())

		err := page.Save(ctx, screens.ContactInfo{Active: true})
		assert.ErrorIs(t, err, models.ErrInvalidInput)

		err = page.Save(ctx, screens.ContactInfo{Email: "not-an-email"})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
		src.AssertNotCalled(t, "SaveConfig", mock.Anything, mock.Anything)
	})
}

func TestTermsConditionsPage(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults keep button labels", func(t *testing.T) {
		src := new(mockDataSource)
		src.On("GetData", ctx).Return(dataWith(nil), nil).Once()
		page := screens.NewTermsConditionsPage(src, zap.NewNop())

		view, err := page.Load(ctx)

		require.NoError(t, err)
		assert.Equal(t, screens.DefaultTermsConditions(), view.Record)
		assert.Equal(t, "Accept", view.Record.AcceptButtonText)
	})

	t.Run("stored fields override defaults", func(t *testing.T) {
		src := new(mockDataSource)
		src.On("GetData", ctx).Return(dataWith(map[string]any{
			"termsConditions_active": true,
			"termsConditions_title":  "Terms",
			"termsConditions_text":   "Be nice",
		}), nil).Once()
		page := screens.NewTermsConditionsPage(src, zap.NewNop())

		view, err := page.Load(ctx)

		require.NoError(t, err)
		assert.True(t, view.Record.Active)
		assert.Equal(t, "Terms", view.Record.Title)
		assert.Equal(t, "Cancel", view.Record.CancelButtonText)
	})

	t.Run("mutation error surfaces on next load", func(t *testing.T) {
		src := new(mockDataSource)
		src.On("SaveConfig", ctx, mock.Anything).Return(nil, errors.New("graphql: forbidden")).Once()
		src.On("GetData", ctx).Return(dataWith(nil), nil).Once()
		page := screens.NewTermsConditionsPage(src, zap.NewNop())

		err := page.Save(ctx, screens.DefaultTermsConditions())
		assert.ErrorIs(t, err, models.ErrDataSource)

		view, err := page.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "graphql: forbidden", view.Error)
	})

	t.Run("active terms need text", func(t *testing.T) {
		src := new(mockDataSource)
		page := screens.NewTermsConditionsPage(src, zap.NewNop())

		record := screens.DefaultTermsConditions()
		record.Active = true
		record.Title = "Terms"

		assert.ErrorIs(t, page.Save(ctx, record), models.ErrInvalidInput)
	})
}
