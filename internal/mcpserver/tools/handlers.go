package tools

import (
	"context"
	"encoding/json"

	"github.com/erauner12/chokabridge/internal/mcpserver/client"
)

func HandleUploadFile(ctx context.Context, tc *ToolContext, args Arguments) (json.RawMessage, error) {
	params, err := DecodeParams[UploadFileParams](args)
	if err != nil {
		return nil, err
	}

	backend, err := tc.GetBackend()
	if err != nil {
		return nil, err
	}

	tc.logger().Debug().Str("filename", params.Filename).Msg("uploading fish image")

	answer, err := backend.Upload(ctx, params.Filename)
	if err != nil {
		return nil, WrapClientError(err)
	}
	return answer, nil
}

func HandleGetRecipe(ctx context.Context, tc *ToolContext, args Arguments) (json.RawMessage, error) {
	params, err := DecodeParams[GetRecipeParams](args)
	if err != nil {
		return nil, err
	}

	backend, err := tc.GetBackend()
	if err != nil {
		return nil, err
	}

	answer, err := backend.GetRecipe(ctx, client.RecipeRequest{
		UserInput: params.UserInput,
		FishName:  params.FishName,
		FishInfo:  params.FishInfo,
	})
	if err != nil {
		return nil, WrapClientError(err)
	}
	return answer, nil
}

func HandleRegisterChoka(ctx context.Context, tc *ToolContext, args Arguments) (json.RawMessage, error) {
	params, err := DecodeParams[RegisterChokaParams](args)
	if err != nil {
		return nil, err
	}

	backend, err := tc.GetBackend()
	if err != nil {
		return nil, err
	}

	answer, err := backend.RegisterChoka(ctx, client.ChokaRequest{
		FishID:    params.FishID,
		FishName:  params.FishName,
		Size:      params.FishSize,
		FishCount: params.FishCount,
	})
	if err != nil {
		return nil, WrapClientError(err)
	}
	return answer, nil
}
