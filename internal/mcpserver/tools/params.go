package tools

import (
	"encoding/json"
	"errors"
	"fmt"
)

// UploadFileParams are the arguments of upload_file
type UploadFileParams struct {
	Filename string `json:"filename" jsonschema_description:"アップロードする魚画像ファイル名フルパス（例: c:\\temp\\fish.jpg）で指定します。応答はJSONで返送され、FishID、FishName、FishInfoが返ります。"`
}

// GetRecipeParams are the arguments of get_recipe
type GetRecipeParams struct {
	UserInput string `json:"UserInput" jsonschema_description:"ユーザのレシピに対する希望。例：夏バテ防止レシピ"`
	FishName  string `json:"FishName" jsonschema_description:"魚の画像アップロード後に得られた魚の名称"`
	FishInfo  string `json:"FishInfo" jsonschema_description:"魚の画像アップロード後に得られた魚の情報"`
}

// RegisterChokaParams are the arguments of register_choka
type RegisterChokaParams struct {
	FishID    string `json:"FishID" jsonschema_description:"upload_fileの応答JSONにあるFishIDを使用する。upload_fileを事前に実行していない場合はユーザによる指定が必要"`
	FishName  string `json:"FishName" jsonschema_description:"upload_fileの応答JSONにあるFishNameを使用する。upload_fileを事前に実行していない場合はユーザによる指定が必要"`
	FishSize  string `json:"FishSize" jsonschema_description:"釣果登録時、魚の体長をセンチメートルで指定する"`
	FishCount int    `json:"FishCount" jsonschema_description:"釣果登録時、釣った魚の数を指定する。"`
}

// checkRequired reports the first required key that is absent or null
func checkRequired(args Arguments, required []string) error {
	for _, key := range required {
		if v, ok := args[key]; !ok || v == nil {
			return NewToolError(KindMissingField, fmt.Sprintf("missing required argument '%s'", key))
		}
	}
	return nil
}

// DecodeParams decodes validated arguments into a tool's params struct.
// A value of the wrong JSON type is an InvalidFieldError.
func DecodeParams[T any](args Arguments) (T, error) {
	var params T

	data, err := json.Marshal(args)
	if err != nil {
		return params, NewToolError(KindInvalidField, "Invalid parameters: "+err.Error())
	}

	if err := json.Unmarshal(data, &params); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return params, NewToolError(KindInvalidField, fmt.Sprintf(
				"argument '%s' must be %s, got %s", typeErr.Field, jsonTypeName(typeErr.Type.Kind().String()), typeErr.Value))
		}
		return params, NewToolError(KindInvalidField, "Invalid parameters: "+err.Error())
	}

	return params, nil
}

func jsonTypeName(goKind string) string {
	switch goKind {
	case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64":
		return "an integer"
	case "string":
		return "a string"
	default:
		return goKind
	}
}
