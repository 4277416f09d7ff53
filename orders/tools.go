package orders

import (
	"context"
	"fmt"

	"github.com/hupe1980/kitchenmesh/tool"
)

// KitchenTools is the local in-process implementation of the cooking-station
// tool set. It implements tool.Provider with the same tool names the remote
// MCP station servers advertise, so the kitchen can run without any external
// tool processes. When both are configured the catalog's first-registration-
// wins rule decides which implementation serves a name.
type KitchenTools struct {
	tools []tool.Tool
}

// NewKitchenTools builds the full station tool set.
func NewKitchenTools() *KitchenTools {
	return &KitchenTools{tools: []tool.Tool{
		// Grill station
		cookingTool("cook_patty", "Cook a burger patty to specified doneness.",
			[]string{"pattyType", "doneness"},
			func(a args) string {
				return fmt.Sprintf("🥩 Cooking %s patty to %s doneness... Done! Perfectly cooked patty ready.", a.str("pattyType"), a.str("doneness"))
			}),
		cookingTool("melt_cheese", "Melt cheese on a burger patty.",
			[]string{"cheeseType"},
			func(a args) string {
				return fmt.Sprintf("🧀 Melting %s cheese on the patty... Perfect melt achieved!", a.str("cheeseType"))
			}),
		cookingTool("add_bacon", "Add crispy bacon strips to a burger.",
			[]string{"baconStrips"},
			func(a args) string {
				return fmt.Sprintf("🥓 Adding %s strips of crispy bacon... Bacon perfectly placed!", a.str("baconStrips"))
			}),
		cookingTool("toast_bun", "Toast burger buns to specified level.",
			[]string{"bunType", "toastLevel"},
			func(a args) string {
				return fmt.Sprintf("🍞 Toasting %s bun to %s... Golden brown perfection!", a.str("bunType"), a.str("toastLevel"))
			}),
		cookingTool("assemble_burger", "Assemble a burger with specified components.",
			[]string{"components"},
			func(a args) string {
				return fmt.Sprintf("🍔 Assembling burger with %s... Perfectly assembled burger ready!", a.str("components"))
			}),

		// Fryer station
		cookingTool("fry_fries", "Fry standard French fries.",
			[]string{"portion", "duration"},
			func(a args) string {
				return fmt.Sprintf("🍟 Frying %s portion of standard fries for %s minutes... Crispy golden fries ready!", a.str("portion"), a.str("duration"))
			}),
		cookingTool("fry_onion_rings", "Fry onion rings.",
			[]string{"portion"},
			func(a args) string {
				return fmt.Sprintf("🧅 Frying %s portion of onion rings... Crispy onion rings ready!", a.str("portion"))
			}),
		cookingTool("fry_waffle_fries", "Fry waffle-cut French fries.",
			[]string{"portion", "duration"},
			func(a args) string {
				return fmt.Sprintf("🧇 Frying %s portion of waffle fries for %s minutes... Crispy waffle-cut fries ready!", a.str("portion"), a.str("duration"))
			}),
		cookingTool("fry_sweet_potato_fries", "Fry sweet potato fries.",
			[]string{"portion", "duration"},
			func(a args) string {
				return fmt.Sprintf("🍠 Frying %s portion of sweet potato fries for %s minutes... Delicious sweet potato fries ready!", a.str("portion"), a.str("duration"))
			}),
		cookingTool("add_salt", "Add salt to fries.",
			[]string{"addSalt"},
			func(a args) string {
				if a.str("addSalt") == "false" {
					return ""
				}
				return "🧂 Adding salt to fries... Perfectly seasoned fries ready!"
			}),
		cookingTool("bag_fries_for_order", "Bag an order of fries to prep them for delivery.",
			nil,
			func(args) string {
				return "🍟 Bagging up order of fries ... Fries ready!"
			}),

		// Dessert station
		cookingTool("make_shake", "Make a milkshake.",
			[]string{"size", "flavor", "toppings"},
			func(a args) string {
				return fmt.Sprintf("🥤 Making %s %s shake with %s... Creamy shake ready!", a.str("size"), a.str("flavor"), a.str("toppings"))
			}),
		cookingTool("make_sundae", "Make a sundae.",
			[]string{"size", "flavor", "toppings"},
			func(a args) string {
				return fmt.Sprintf("🍨 Making %s sundae with %s ice cream and %s... Delicious sundae ready!", a.str("size"), a.str("flavor"), a.str("toppings"))
			}),
		cookingTool("add_whipped_cream", "Add whipped cream to a dessert.",
			[]string{"amount"},
			func(a args) string {
				return fmt.Sprintf("🍦 Adding %s whipped cream... Perfect fluffy topping added!", a.str("amount"))
			}),

		// Expo station
		cookingTool("plate_meal", "Plate a meal with proper presentation.",
			[]string{"service", "presentation"},
			func(a args) string {
				return fmt.Sprintf("🍽️ Plating meal for %s with %s... Meal beautifully presented!", a.str("service"), a.str("presentation"))
			}),
		cookingTool("package_for_takeout", "Package food items for takeout.",
			[]string{"items", "accessories"},
			func(a args) string {
				return fmt.Sprintf("📦 Packaging %s for takeout with %s... Order ready for pickup!", a.str("items"), a.str("accessories"))
			}),
	}}
}

// Tools implements tool.Provider.
func (k *KitchenTools) Tools() []tool.Tool { return k.tools }

type args map[string]any

// str renders one argument as text, defaulting to "standard" so tool replies
// stay readable when the model omits an optional detail.
func (a args) str(key string) string {
	v, ok := a[key]
	if !ok || v == nil {
		return "standard"
	}
	return fmt.Sprintf("%v", v)
}

func cookingTool(name, description string, params []string, fn func(a args) string) tool.Tool {
	properties := map[string]any{}
	for _, p := range params {
		properties[p] = map[string]any{"type": "string"}
	}
	return tool.NewFunctionTool(name, description,
		map[string]any{"type": "object", "properties": properties},
		func(_ context.Context, in map[string]any) (any, error) {
			return fn(args(in)), nil
		},
	)
}
