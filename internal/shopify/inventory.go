package shopify

import (
	"context"
	"log/slog"
)

// snapshotRowCap bounds pagination when walking inventory levels.
const snapshotRowCap = 200

// LevelRow is one SKU's live quantity at the warehouse location.
type LevelRow struct {
	Title      string
	SKU        string
	Available  int
	ProductRef string
}

// Location identifies a platform location.
type Location struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type pageInfo struct {
	HasNextPage bool    `json:"hasNextPage"`
	EndCursor   *string `json:"endCursor"`
}

type quantity struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

func availableQuantity(quantities []quantity) int {
	for _, q := range quantities {
		if q.Name == "available" {
			return q.Quantity
		}
	}
	return 0
}

const levelsAtLocationQuery = `
query($id: ID!, $after: String) {
  location(id: $id) {
    name
    inventoryLevels(first: 50, after: $after) {
      edges {
        node {
          quantities(names: ["available"]) { name quantity }
          item {
            sku
            variant { product { id title } }
          }
        }
      }
      pageInfo { hasNextPage endCursor }
    }
  }
}`

// LevelsAtLocation walks location.inventoryLevels and returns one row per
// SKU plus the location's display name. This is the primary feed query.
func (c *Client) LevelsAtLocation(ctx context.Context, locationRef string) ([]LevelRow, string, error) {
	var (
		rows         []LevelRow
		locationName string
		after        *string
	)

	for len(rows) < snapshotRowCap {
		var data struct {
			Location *struct {
				Name            string `json:"name"`
				InventoryLevels struct {
					Edges []struct {
						Node struct {
							Quantities []quantity `json:"quantities"`
							Item       struct {
								SKU     string `json:"sku"`
								Variant *struct {
									Product struct {
										ID    string `json:"id"`
										Title string `json:"title"`
									} `json:"product"`
								} `json:"variant"`
							} `json:"item"`
						} `json:"node"`
					} `json:"edges"`
					PageInfo pageInfo `json:"pageInfo"`
				} `json:"inventoryLevels"`
			} `json:"location"`
		}

		vars := map[string]any{"id": locationRef}
		if after != nil {
			vars["after"] = *after
		}
		if err := c.query(ctx, levelsAtLocationQuery, vars, &data); err != nil {
			return nil, locationName, err
		}
		if data.Location == nil {
			break
		}
		locationName = data.Location.Name

		for _, edge := range data.Location.InventoryLevels.Edges {
			item := edge.Node.Item
			if item.SKU == "" {
				continue
			}
			row := LevelRow{
				SKU:       item.SKU,
				Title:     item.SKU,
				Available: availableQuantity(edge.Node.Quantities),
			}
			if item.Variant != nil {
				if item.Variant.Product.Title != "" {
					row.Title = item.Variant.Product.Title
				}
				row.ProductRef = item.Variant.Product.ID
			}
			rows = append(rows, row)
		}

		if !data.Location.InventoryLevels.PageInfo.HasNextPage {
			break
		}
		after = data.Location.InventoryLevels.PageInfo.EndCursor
	}

	return rows, locationName, nil
}

const levelsByVariantQuery = `
query($after: String) {
  productVariants(first: 50, after: $after, query: "status:active") {
    edges {
      node {
        sku
        product { id title }
        inventoryItem {
          inventoryLevels(first: 50) {
            edges {
              node {
                location { id }
                quantities(names: ["available"]) { name quantity }
              }
            }
          }
        }
      }
    }
    pageInfo { hasNextPage endCursor }
  }
}`

// LevelsByVariant is the fallback feed query: walk active product variants
// and pick the inventory level matching locationRef.
func (c *Client) LevelsByVariant(ctx context.Context, locationRef string) ([]LevelRow, error) {
	bySKU := make(map[string]LevelRow)
	var order []string
	var after *string

	for len(bySKU) < snapshotRowCap {
		var data struct {
			ProductVariants struct {
				Edges []struct {
					Node struct {
						SKU     string `json:"sku"`
						Product struct {
							ID    string `json:"id"`
							Title string `json:"title"`
						} `json:"product"`
						InventoryItem struct {
							InventoryLevels struct {
								Edges []struct {
									Node struct {
										Location   struct{ ID string } `json:"location"`
										Quantities []quantity          `json:"quantities"`
									} `json:"node"`
								} `json:"edges"`
							} `json:"inventoryLevels"`
						} `json:"inventoryItem"`
					} `json:"node"`
				} `json:"edges"`
				PageInfo pageInfo `json:"pageInfo"`
			} `json:"productVariants"`
		}

		vars := map[string]any{}
		if after != nil {
			vars["after"] = *after
		}
		if err := c.query(ctx, levelsByVariantQuery, vars, &data); err != nil {
			return nil, err
		}

		for _, edge := range data.ProductVariants.Edges {
			v := edge.Node
			if v.SKU == "" {
				continue
			}
			if _, seen := bySKU[v.SKU]; seen {
				continue
			}

			available := 0
			for _, lev := range v.InventoryItem.InventoryLevels.Edges {
				if lev.Node.Location.ID == locationRef {
					available = availableQuantity(lev.Node.Quantities)
					break
				}
			}

			title := v.Product.Title
			if title == "" {
				title = v.SKU
			}
			bySKU[v.SKU] = LevelRow{
				Title:      title,
				SKU:        v.SKU,
				Available:  available,
				ProductRef: v.Product.ID,
			}
			order = append(order, v.SKU)
		}

		if !data.ProductVariants.PageInfo.HasNextPage {
			break
		}
		after = data.ProductVariants.PageInfo.EndCursor
	}

	rows := make([]LevelRow, 0, len(order))
	for _, sku := range order {
		rows = append(rows, bySKU[sku])
	}
	return rows, nil
}

const locationNameQuery = `
query($id: ID!) { node(id: $id) { ... on Location { name } } }`

// LocationName resolves the display name of a location ref.
func (c *Client) LocationName(ctx context.Context, locationRef string) (string, error) {
	var data struct {
		Node *struct {
			Name string `json:"name"`
		} `json:"node"`
	}
	if err := c.query(ctx, locationNameQuery, map[string]any{"id": locationRef}, &data); err != nil {
		return "", err
	}
	if data.Node == nil {
		return "", nil
	}
	return data.Node.Name, nil
}

const validateLocationQuery = `
query($id: ID!) { node(id: $id) { id __typename } }`

// ValidateLocation reports whether locationRef resolves to a live Location.
func (c *Client) ValidateLocation(ctx context.Context, locationRef string) bool {
	if locationRef == "" {
		return false
	}
	var data struct {
		Node *struct {
			ID       string `json:"id"`
			TypeName string `json:"__typename"`
		} `json:"node"`
	}
	if err := c.query(ctx, validateLocationQuery, map[string]any{"id": locationRef}, &data); err != nil {
		c.logger.Warn("validate location", slog.String("ref", locationRef), slog.Any("error", err))
		return false
	}
	return data.Node != nil && data.Node.ID != "" && data.Node.TypeName == "Location"
}

const listLocationsQuery = `
query($after: String) {
  locations(first: 50, after: $after) {
    edges { node { id name } }
    pageInfo { hasNextPage endCursor }
  }
}`

// ListLocations returns all platform locations.
func (c *Client) ListLocations(ctx context.Context) ([]Location, error) {
	var out []Location
	var after *string

	for {
		var data struct {
			Locations struct {
				Edges []struct {
					Node Location `json:"node"`
				} `json:"edges"`
				PageInfo pageInfo `json:"pageInfo"`
			} `json:"locations"`
		}

		vars := map[string]any{}
		if after != nil {
			vars["after"] = *after
		}
		if err := c.query(ctx, listLocationsQuery, vars, &data); err != nil {
			return nil, err
		}
		for _, edge := range data.Locations.Edges {
			out = append(out, edge.Node)
		}
		if !data.Locations.PageInfo.HasNextPage {
			break
		}
		after = data.Locations.PageInfo.EndCursor
	}

	return out, nil
}

// FirstLocationRef returns the ref of the first platform location, used as
// the warehouse fallback when the configured ref is stale.
func (c *Client) FirstLocationRef(ctx context.Context) (string, error) {
	var data struct {
		Locations struct {
			Edges []struct {
				Node struct {
					ID string `json:"id"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"locations"`
	}
	if err := c.query(ctx, `query { locations(first: 1) { edges { node { id } } } }`, nil, &data); err != nil {
		return "", err
	}
	if len(data.Locations.Edges) == 0 {
		return "", nil
	}
	return data.Locations.Edges[0].Node.ID, nil
}

const productCountQuery = `
query {
  products(first: 50, sortKey: UPDATED_AT) {
    edges { node { id } }
  }
}`

// ProductCount returns an approximate product count (first page only).
func (c *Client) ProductCount(ctx context.Context) (int, error) {
	var data struct {
		Products struct {
			Edges []struct {
				Node struct {
					ID string `json:"id"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"products"`
	}
	if err := c.query(ctx, productCountQuery, nil, &data); err != nil {
		return 0, err
	}
	return len(data.Products.Edges), nil
}
