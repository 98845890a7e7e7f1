package shopify

import (
	"context"
	"fmt"
)

// OrderItem is one line of an outbound order.
type OrderItem struct {
	SKU      string
	Quantity int
}

const findVariantQuery = `
query($q: String!) {
  productVariants(first: 1, query: $q) {
    edges { node { id sku } }
  }
}`

// findVariantBySKU resolves a SKU to a variant ref, or "" when unknown.
func (c *Client) findVariantBySKU(ctx context.Context, sku string) (string, error) {
	var data struct {
		ProductVariants struct {
			Edges []struct {
				Node struct {
					ID  string `json:"id"`
					SKU string `json:"sku"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"productVariants"`
	}
	vars := map[string]any{"q": fmt.Sprintf("sku:%s", sku)}
	if err := c.query(ctx, findVariantQuery, vars, &data); err != nil {
		return "", err
	}
	if len(data.ProductVariants.Edges) == 0 {
		return "", nil
	}
	return data.ProductVariants.Edges[0].Node.ID, nil
}

const draftOrderCreateMutation = `
mutation($input: DraftOrderInput!) {
  draftOrderCreate(input: $input) {
    draftOrder { id }
    userErrors { field message }
  }
}`

const draftOrderCompleteMutation = `
mutation($id: ID!) {
  draftOrderComplete(id: $id, paymentPending: true) {
    order { id name }
    userErrors { message }
  }
}`

// CreateOrder creates and completes a draft order for the given items and
// returns the resulting order ref. Lines whose SKU cannot be resolved to a
// variant are dropped; "" is returned when nothing could be ordered.
func (c *Client) CreateOrder(ctx context.Context, items []OrderItem) (string, error) {
	lineItems := make([]map[string]any, 0, len(items))
	for _, item := range items {
		variantRef, err := c.findVariantBySKU(ctx, item.SKU)
		if err != nil {
			return "", err
		}
		if variantRef == "" {
			continue
		}
		lineItems = append(lineItems, map[string]any{
			"variantId": variantRef,
			"quantity":  item.Quantity,
		})
	}
	if len(lineItems) == 0 {
		return "", nil
	}

	input := map[string]any{
		"lineItems": lineItems,
		"tags":      []string{"Virtual Sale"},
		"note":      "Created by Stockbridge",
	}

	var created struct {
		DraftOrderCreate struct {
			DraftOrder *struct {
				ID string `json:"id"`
			} `json:"draftOrder"`
			UserErrors []struct {
				Message string `json:"message"`
			} `json:"userErrors"`
		} `json:"draftOrderCreate"`
	}
	if err := c.query(ctx, draftOrderCreateMutation, map[string]any{"input": input}, &created); err != nil {
		return "", err
	}
	if created.DraftOrderCreate.DraftOrder == nil {
		if len(created.DraftOrderCreate.UserErrors) > 0 {
			return "", fmt.Errorf("shopify: draft order: %s", created.DraftOrderCreate.UserErrors[0].Message)
		}
		return "", nil
	}
	draftRef := created.DraftOrderCreate.DraftOrder.ID

	var completed struct {
		DraftOrderComplete struct {
			Order *struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"order"`
		} `json:"draftOrderComplete"`
	}
	if err := c.query(ctx, draftOrderCompleteMutation, map[string]any{"id": draftRef}, &completed); err != nil {
		// The draft exists even when completion fails; hand its ref back.
		return draftRef, nil
	}
	if completed.DraftOrderComplete.Order != nil {
		return completed.DraftOrderComplete.Order.ID, nil
	}
	return draftRef, nil
}
