package tools

// RegisterAllTools registers the fish tools with the registry
func RegisterAllTools(r *Registry) {
	// upload_file
	r.MustRegister(ToolDefinition{
		Name:        UploadFile,
		Description: "魚の画像を渡すと魚名が返ります。補足情報として魚IDと魚の情報も返ります。",
		InputSchema: SchemaFor(&UploadFileParams{}),
		ErrorTag:    "upload",
	}, HandleUploadFile)

	// get_recipe
	r.MustRegister(ToolDefinition{
		Name:        GetRecipe,
		Description: "ユーザプロンプトと前回取得した魚名、魚の情報を元にレシピ生成",
		InputSchema: SchemaFor(&GetRecipeParams{}),
		ErrorTag:    "recipe",
	}, HandleGetRecipe)

	// register_choka
	r.MustRegister(ToolDefinition{
		Name:        RegisterChoka,
		Description: "釣果登録が行えます",
		InputSchema: SchemaFor(&RegisterChokaParams{}),
		ErrorTag:    "register",
	}, HandleRegisterChoka)
}
