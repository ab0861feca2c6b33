package infra

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

type fakeSSM struct {
	value *string
	err   error
	got   *ssm.GetParameterInput
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.got = in
	if f.err != nil {
		return nil, f.err
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: f.value}}, nil
}

func TestParamStore_GetParameter(t *testing.T) {
	v := "secret"
	api := &fakeSSM{value: &v}
	ps, err := newParamStore(api)
	require.NoError(t, err)

	got, err := ps.GetParameter(context.Background(), " /wayfarer/provider/client_id ")
	require.NoError(t, err)
	require.Equal(t, "secret", got)
	require.Equal(t, "/wayfarer/provider/client_id", *api.got.Name)
	require.True(t, *api.got.WithDecryption)
}

func TestParamStore_Errors(t *testing.T) {
	_, err := newParamStore(nil)
	require.Error(t, err)

	ps, _ := newParamStore(&fakeSSM{err: errors.New("denied")})
	_, err = ps.GetParameter(context.Background(), "/x")
	require.ErrorContains(t, err, "denied")

	_, err = ps.GetParameter(context.Background(), "  ")
	require.Error(t, err)

	ps, _ = newParamStore(&fakeSSM{})
	_, err = ps.GetParameter(context.Background(), "/x")
	require.ErrorContains(t, err, "missing value")
}
