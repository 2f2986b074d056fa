package mcpserver

const guideURI = "nutrilog://logging-guide"

// LoggingGuide explains to LLM consumers how to log food correctly.
const LoggingGuide = `# Nutrilog Food Logging Guide

Every logged food becomes an immutable entry in the daily log of one date,
under one meal slot. The day total is always the sum of its entries.

## Targets

1. **Dates** are ` + "`" + `YYYY-MM-DD` + "`" + `. Omit ` + "`" + `date` + "`" + ` to log for today.
2. **Meal slots** are ` + "`" + `breakfast` + "`" + `, ` + "`" + `lunch` + "`" + `, ` + "`" + `dinner` + "`" + ` and ` + "`" + `snack` + "`" + `.

## Picking a tool

- Known food: ` + "`" + `search_foods` + "`" + ` (or ` + "`" + `popular_foods` + "`" + `), then ` + "`" + `log_catalog_food` + "`" + `.
- Known food at an exact weight: ` + "`" + `add_food_to_meal` + "`" + ` with grams and quantity.
- Food not in the catalog but with a label: ` + "`" + `log_custom_food` + "`" + `. Values are
  totals for the grams eaten, not per 100 g.
- Only a calorie number: ` + "`" + `quick_add` + "`" + `. It is logged as 100 g.
- A meal picture: ` + "`" + `recognize_photo` + "`" + `, poll ` + "`" + `get_recognition` + "`" + ` until the
  state is ` + "`" + `result_ready` + "`" + `, then ` + "`" + `accept_recognition` + "`" + `.

## Servings

` + "`" + `serving_index` + "`" + ` selects the serving of a catalog food:

| index | meaning |
|---|---|
| 0 | default serving × quantity |
| n > 0 | alternative portion n × quantity |
| -1 | ` + "`" + `grams` + "`" + ` as typed (default serving when empty) |

Quantity is at least 0.5 and moves in steps of 0.5.

## Nutrition

Nutrition is scaled from the per-100 g profile: calories and sodium are whole
numbers, protein, carbohydrates, fat, fiber and sugar have one decimal.

## Removing

` + "`" + `remove_entry` + "`" + ` removes by position within a slot. Pass the ` + "`" + `revision` + "`" + `
from the last ` + "`" + `get_daily_log` + "`" + ` so a removal against a changed log is rejected
instead of removing the wrong entry.
`
