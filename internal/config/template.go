package config

// Template is the starter config written by "shopmcp config init".
const Template = `# shopmcp configuration

listen_addr = "127.0.0.1:8000"
mcp_path = "/mcp"
assets_dir = "./assets"
# default_project = "gdo"
public = false
rate_limit_rps = 60
rate_limit_burst = 20
allowed_origins = ["*"]

chat_model = "gpt-4.1-mini"
# openai_base_url = ""
# mealdb_base_url = "https://www.themealdb.com/api/json/v1/1"
# stripe_base_url = "https://api.stripe.com"
# stripe_payment_method = "pm_card_visa"

# Secrets come from the environment (or .env.local / .env):
#   OPENAI_API_KEY=...       optional; enrichment degrades without it
#   STRIPE_SECRET_KEY=...    required only for create_payment_intent

[projects.gdo]
database = "./data/gdo.sqlite"
match_mode = "substring"
prompts_dir = "./projects/gdo/prompts"
categories_from_db = true

[projects.bricofer]
database = "./data/bricofer.sqlite"
match_mode = "exact"
prompts_dir = "./projects/bricofer/prompts"
extra_context = ""
`
