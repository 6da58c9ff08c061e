package payloads

// ImageCleanupPayload описывает объект в файловом хранилище, который больше
// не используется рецептом и должен быть удален воркером.
type ImageCleanupPayload struct {
	RecipeID  int64  `json:"recipe_id"`
	ObjectKey string `json:"object_key"`
}
