package store

import (
	"github.com/orderline/orderline/pkg/models"
)

// SeedCatalog returns a small but complete cafe catalog used for local dev
// and as the shared fixture across package tests: bagels with spreads and
// proteins, sized espresso drinks with milk/syrup/iced handling, and a few
// standard items (juices, pastries).
func SeedCatalog() *models.Catalog {
	return &models.Catalog{
		Version: "seed-1",
		Store: models.StoreInfo{
			Name:         "Orderline Cafe",
			Phone:        "555-0148",
			CityTaxRate:  0.045,
			StateTaxRate: 0.04,
			DeliveryFee:  2.99,
			DeliveryZips: []string{"11201", "11215", "11217"},
		},
		ItemTypes: []models.ItemType{
			{Slug: "bagel", DisplayName: "Bagel", Kind: models.KindBagel, BasePrice: 2.50},
			{Slug: "latte", DisplayName: "Latte", Kind: models.KindSizedBeverage, BasePrice: 3.45},
			{Slug: "coffee", DisplayName: "Coffee", Kind: models.KindSizedBeverage, BasePrice: 2.25},
			{Slug: "juice", DisplayName: "Juice", Kind: models.KindStandard},
			{Slug: "pastry", DisplayName: "Pastry", Kind: models.KindStandard},

			// Virtual category: "drinks" expands to concrete beverage types.
			{Slug: "drinks", DisplayName: "Drinks", ExpandsTo: []string{"latte", "coffee", "juice"}},
		},
		Attributes: []models.Attribute{
			// Bagel attributes.
			{
				Slug: "bagel_flavor", ItemType: "bagel", DisplayName: "bagel",
				InputKind: models.InputSingleSelect, Required: true, DisplayOrder: 1,
				AskInConversation: true, QuestionText: "What kind of bagel would you like?",
				LoadsFromIngredients: true, IngredientGroup: "bagel_flavor",
			},
			{
				Slug: "toasted", ItemType: "bagel", DisplayName: "toasted",
				InputKind: models.InputBoolean, Required: true, DisplayOrder: 2,
				AskInConversation: true, QuestionText: "Would you like that toasted?",
			},
			{
				Slug: "spread", ItemType: "bagel", DisplayName: "spread",
				InputKind: models.InputSingleSelect, Required: true, AllowNone: true, DisplayOrder: 3,
				AskInConversation: true, QuestionText: "Any cream cheese or butter on that?",
				LoadsFromIngredients: true, IngredientGroup: "spread",
			},
			{
				Slug: "protein", ItemType: "bagel", DisplayName: "protein",
				InputKind: models.InputMultiSelect, AllowNone: true, DisplayOrder: 4,
				AskInConversation:    false,
				LoadsFromIngredients: true, IngredientGroup: "protein",
			},
			{
				Slug: "sliced", ItemType: "bagel", DisplayName: "sliced",
				InputKind: models.InputBoolean, DisplayOrder: 5,
				AskInConversation: false,
			},

			// Latte attributes.
			{
				Slug: "size", ItemType: "latte", DisplayName: "size",
				InputKind: models.InputSingleSelect, Required: true, DisplayOrder: 1,
				AskInConversation: true, QuestionText: "Small or large?",
				Options: []models.AttributeOption{
					{Slug: "small", DisplayName: "Small", PriceModifier: 0, IcedPriceModifier: 1.65, IsDefault: true, Available: true, DisplayOrder: 1},
					{Slug: "large", DisplayName: "Large", PriceModifier: 0.90, IcedPriceModifier: 1.10, Available: true, DisplayOrder: 2},
				},
			},
			{
				Slug: "milk", ItemType: "latte", DisplayName: "milk",
				InputKind: models.InputSingleSelect, Required: true, DisplayOrder: 2,
				AskInConversation: true, QuestionText: "What kind of milk?",
				Options: []models.AttributeOption{
					{Slug: "whole", DisplayName: "Whole milk", PriceModifier: 0, IsDefault: true, Available: true, DisplayOrder: 1},
					{Slug: "skim", DisplayName: "Skim milk", PriceModifier: 0, Available: true, DisplayOrder: 2},
					{Slug: "oat", DisplayName: "Oat milk", PriceModifier: 0.50, Available: true, DisplayOrder: 3, Aliases: []string{"oatly"}},
					{Slug: "almond", DisplayName: "Almond milk", PriceModifier: 0.50, Available: true, DisplayOrder: 4},
				},
			},
			{
				Slug: "iced", ItemType: "latte", DisplayName: "iced",
				InputKind: models.InputBoolean, DisplayOrder: 3,
				AskInConversation: false,
			},
			{
				Slug: "syrup", ItemType: "latte", DisplayName: "syrup",
				InputKind: models.InputMultiSelect, AllowNone: true, DisplayOrder: 4,
				AskInConversation: false,
				Options: []models.AttributeOption{
					{Slug: "vanilla", DisplayName: "Vanilla syrup", PriceModifier: 0.75, Available: true, DisplayOrder: 1},
					{Slug: "caramel", DisplayName: "Caramel syrup", PriceModifier: 0.75, Available: true, DisplayOrder: 2},
					{Slug: "hazelnut", DisplayName: "Hazelnut syrup", PriceModifier: 0.75, Available: true, DisplayOrder: 3},
				},
			},
			{
				Slug: "sweetener", ItemType: "latte", DisplayName: "sweetener",
				InputKind: models.InputMultiSelect, AllowNone: true, DisplayOrder: 5,
				AskInConversation: false,
				Options: []models.AttributeOption{
					{Slug: "sugar", DisplayName: "Sugar", PriceModifier: 0, Available: true, DisplayOrder: 1},
					{Slug: "splenda", DisplayName: "Splenda", PriceModifier: 0, Available: true, DisplayOrder: 2},
				},
			},

			// Coffee attributes.
			{
				Slug: "size", ItemType: "coffee", DisplayName: "size",
				InputKind: models.InputSingleSelect, Required: true, DisplayOrder: 1,
				AskInConversation: true, QuestionText: "Small or large?",
				Options: []models.AttributeOption{
					{Slug: "small", DisplayName: "Small", PriceModifier: 0, IcedPriceModifier: 0.75, IsDefault: true, Available: true, DisplayOrder: 1},
					{Slug: "large", DisplayName: "Large", PriceModifier: 0.60, IcedPriceModifier: 0.50, Available: true, DisplayOrder: 2},
				},
			},
			{
				Slug: "iced", ItemType: "coffee", DisplayName: "iced",
				InputKind: models.InputBoolean, DisplayOrder: 2,
				AskInConversation: false,
			},
			{
				Slug: "milk", ItemType: "coffee", DisplayName: "milk",
				InputKind: models.InputSingleSelect, AllowNone: true, DisplayOrder: 3,
				AskInConversation: true, QuestionText: "Milk with that?",
				Options: []models.AttributeOption{
					{Slug: "whole", DisplayName: "Whole milk", PriceModifier: 0, Available: true, DisplayOrder: 1},
					{Slug: "oat", DisplayName: "Oat milk", PriceModifier: 0.50, Available: true, DisplayOrder: 2},
				},
			},
		},
		Ingredients: []models.Ingredient{
			{ID: "ing-plain", Name: "Plain", Category: "bagel_flavor", BasePrice: 0, Available: true, Vegan: true},
			{ID: "ing-everything", Name: "Everything", Category: "bagel_flavor", BasePrice: 0, Available: true, Vegan: true,
				MustMatch: []string{"everything"}},
			{ID: "ing-gf-everything", Name: "Gluten Free Everything", Category: "bagel_flavor", BasePrice: 1.00, Available: true, GlutenFree: true,
				Aliases:   []string{"gluten free everything"},
				MustMatch: []string{"gluten free", "gluten-free", "gf"}},
			{ID: "ing-sesame", Name: "Sesame", Category: "bagel_flavor", BasePrice: 0, Available: true, Vegan: true},

			{ID: "ing-plain-cc", Name: "Plain Cream Cheese", Category: "spread", BasePrice: 1.50, Available: true, Vegetarian: true,
				Aliases: []string{"cream cheese"}},
			{ID: "ing-scallion-cc", Name: "Scallion Cream Cheese", Category: "spread", BasePrice: 1.75, Available: true, Vegetarian: true,
				MustMatch: []string{"scallion"}},
			{ID: "ing-butter", Name: "Butter", Category: "spread", BasePrice: 0.75, Available: true, Vegetarian: true},

			{ID: "ing-bacon", Name: "Bacon", Category: "protein", BasePrice: 2.50, Available: true},
			{ID: "ing-egg", Name: "Egg", Category: "protein", BasePrice: 1.75, Available: true, Vegetarian: true},
			{ID: "ing-lox", Name: "Lox", Category: "protein", BasePrice: 6.00, Available: true,
				Aliases: []string{"smoked salmon", "nova"}},
		},
		IngredientLinks: []models.ItemTypeIngredient{
			{ItemType: "bagel", IngredientID: "ing-plain", Group: "bagel_flavor", IsDefault: true, Available: true, DisplayOrder: 1},
			{ItemType: "bagel", IngredientID: "ing-everything", Group: "bagel_flavor", Available: true, DisplayOrder: 2},
			{ItemType: "bagel", IngredientID: "ing-gf-everything", Group: "bagel_flavor", PriceModifier: 1.00, Available: true, DisplayOrder: 3},
			{ItemType: "bagel", IngredientID: "ing-sesame", Group: "bagel_flavor", Available: true, DisplayOrder: 4},

			{ItemType: "bagel", IngredientID: "ing-plain-cc", Group: "spread", PriceModifier: 1.50, Available: true, DisplayOrder: 1},
			{ItemType: "bagel", IngredientID: "ing-scallion-cc", Group: "spread", PriceModifier: 1.75, Available: true, DisplayOrder: 2},
			{ItemType: "bagel", IngredientID: "ing-butter", Group: "spread", PriceModifier: 0.75, Available: true, DisplayOrder: 3},

			{ItemType: "bagel", IngredientID: "ing-bacon", Group: "protein", PriceModifier: 2.50, Available: true, DisplayOrder: 1},
			{ItemType: "bagel", IngredientID: "ing-egg", Group: "protein", PriceModifier: 1.75, Available: true, DisplayOrder: 2},
			{ItemType: "bagel", IngredientID: "ing-lox", Group: "protein", PriceModifier: 6.00, Available: true, DisplayOrder: 3},
		},
		MenuItems: []models.MenuItem{
			{
				ID: "mi-bec", Name: "The Classic BEC", ItemType: "bagel", BasePrice: 7.50, Available: true,
				RequiredMatchPhrases: []string{"bec", "bacon egg and cheese", "bacon egg cheese"},
				Aliases:              []string{"classic bec", "bec", "bacon egg and cheese"},
				DefaultConfig:        map[string]string{"bagel_flavor": "ing-plain"},
			},
			{
				ID: "mi-lox", Name: "Lox Deluxe", ItemType: "bagel", BasePrice: 12.95, Available: true,
				Aliases:       []string{"lox sandwich", "lox deluxe"},
				DefaultConfig: map[string]string{"bagel_flavor": "ing-plain", "spread": "ing-plain-cc"},
			},
			{ID: "mi-oj", Name: "Tropicana Orange Juice", ItemType: "juice", BasePrice: 3.25, Available: true,
				Aliases: []string{"orange juice", "oj", "tropicana"}},
			{ID: "mi-apple-juice", Name: "Apple Juice", ItemType: "juice", BasePrice: 3.00, Available: true},
			{ID: "mi-croissant", Name: "Butter Croissant", ItemType: "pastry", BasePrice: 3.75, Available: true,
				Aliases: []string{"croissant"}},
		},
		Qualifiers: []models.Qualifier{
			{Phrase: "extra", Normalized: "extra", Category: models.QualifierAmount},
			{Phrase: "light", Normalized: "light", Category: models.QualifierAmount},
			{Phrase: "a little", Normalized: "light", Category: models.QualifierAmount},
			{Phrase: "double", Normalized: "extra", Category: models.QualifierAmount},
			{Phrase: "on the side", Normalized: "side", Category: models.QualifierPosition},
			{Phrase: "on top", Normalized: "top", Category: models.QualifierPosition},
			{Phrase: "well done", Normalized: "well_done", Category: models.QualifierPreparation},
			{Phrase: "crispy", Normalized: "crispy", Category: models.QualifierPreparation},
			{Phrase: "lightly toasted", Normalized: "light_toast", Category: models.QualifierPreparation},
		},
		ResponsePatterns: []models.ResponsePattern{
			{Phrase: "yes", Intent: models.IntentAffirmative},
			{Phrase: "yeah", Intent: models.IntentAffirmative},
			{Phrase: "yep", Intent: models.IntentAffirmative},
			{Phrase: "sure", Intent: models.IntentAffirmative},
			{Phrase: "please", Intent: models.IntentAffirmative},
			{Phrase: "ok", Intent: models.IntentAffirmative},
			{Phrase: "sounds good", Intent: models.IntentAffirmative},
			{Phrase: "no", Intent: models.IntentNegative},
			{Phrase: "nope", Intent: models.IntentNegative},
			{Phrase: "no thanks", Intent: models.IntentNegative},
			{Phrase: "nothing", Intent: models.IntentNegative},
			{Phrase: "none", Intent: models.IntentNegative},
			{Phrase: "cancel", Intent: models.IntentCancel},
			{Phrase: "never mind", Intent: models.IntentCancel},
			{Phrase: "nevermind", Intent: models.IntentCancel},
			{Phrase: "start over", Intent: models.IntentCancel},
			{Phrase: "that's it", Intent: models.IntentDone},
			{Phrase: "thats it", Intent: models.IntentDone},
			{Phrase: "that's all", Intent: models.IntentDone},
			{Phrase: "thats all", Intent: models.IntentDone},
			{Phrase: "i'm done", Intent: models.IntentDone},
			{Phrase: "im done", Intent: models.IntentDone},
			{Phrase: "checkout", Intent: models.IntentDone},
			{Phrase: "check out", Intent: models.IntentDone},
		},
		Abbreviations: map[string]string{
			"cc":  "cream cheese",
			"gf":  "gluten free",
			"lg":  "large",
			"sm":  "small",
			"w/":  "with",
			"w/o": "without",
		},
	}
}
