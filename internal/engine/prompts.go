package engine

var Prompts = []string{
	"A cat wearing a tiny hat",
	"A lighthouse on a stormy night",
	"A professor giving a lecture",
	"A rocket launching into space",
	"A dog catching a frisbee",
	"A robot serving coffee",
	"A playful otter juggling",
	"A cat napping in a sunbeam",
	"A friendly ghost sipping tea",
	"A single red rose in glass vase",
	"A stack of books",
	"A dragon guarding a treasure chest",
	"A snowman at the beach",
	"A penguin riding a bicycle",
}
