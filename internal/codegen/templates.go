package codegen

import (
	"fmt"
	"strings"

	"infra-planner/pkg/api"
)

// defaultRegion is the region each provider block is pinned to.
var defaultRegion = map[api.CloudProvider]string{
	api.ProviderAWS:   "us-east-1",
	api.ProviderAzure: "eastus",
	api.ProviderGCP:   "us-central1",
}

// resourceTypes maps (provider, kind) to the Terraform resource type.
var resourceTypes = map[api.CloudProvider]map[api.ResourceKind]string{
	api.ProviderAWS: {
		api.KindCompute:      "aws_instance",
		api.KindDatabase:     "aws_db_instance",
		api.KindLoadBalancer: "aws_lb",
		api.KindCache:        "aws_elasticache_cluster",
		api.KindStorage:      "aws_s3_bucket",
		api.KindQueue:        "aws_sqs_queue",
		api.KindGateway:      "aws_apigatewayv2_api",
		api.KindAuth:         "aws_cognito_user_pool",
		api.KindCDN:          "aws_cloudfront_distribution",
		api.KindMonitoring:   "aws_cloudwatch_dashboard",
	},
	api.ProviderAzure: {
		api.KindCompute:      "azurerm_linux_virtual_machine",
		api.KindDatabase:     "azurerm_postgresql_flexible_server",
		api.KindLoadBalancer: "azurerm_lb",
		api.KindCache:        "azurerm_redis_cache",
		api.KindStorage:      "azurerm_storage_account",
		api.KindQueue:        "azurerm_servicebus_queue",
		api.KindGateway:      "azurerm_api_management",
		api.KindAuth:         "azurerm_key_vault",
		api.KindCDN:          "azurerm_cdn_profile",
		api.KindMonitoring:   "azurerm_monitor_action_group",
	},
	api.ProviderGCP: {
		api.KindCompute:      "google_compute_instance",
		api.KindDatabase:     "google_sql_database_instance",
		api.KindLoadBalancer: "google_compute_backend_service",
		api.KindCache:        "google_redis_instance",
		api.KindStorage:      "google_storage_bucket",
		api.KindQueue:        "google_pubsub_topic",
		api.KindGateway:      "google_api_gateway_api",
		api.KindAuth:         "google_identity_platform_config",
		api.KindCDN:          "google_compute_backend_bucket",
		api.KindMonitoring:   "google_monitoring_dashboard",
	},
}

// computeSize maps sizing tiers to provider machine shapes.
var computeSize = map[api.CloudProvider]map[api.SizingTier]string{
	api.ProviderAWS: {
		api.TierMinimal:          "t3.micro",
		api.TierStandard:         "t3.medium",
		api.TierScaled:           "m5.large",
		api.TierHighAvailability: "m5.2xlarge",
	},
	api.ProviderAzure: {
		api.TierMinimal:          "Standard_B1s",
		api.TierStandard:         "Standard_B2s",
		api.TierScaled:           "Standard_D4s_v5",
		api.TierHighAvailability: "Standard_D8s_v5",
	},
	api.ProviderGCP: {
		api.TierMinimal:          "e2-micro",
		api.TierStandard:         "e2-medium",
		api.TierScaled:           "n2-standard-4",
		api.TierHighAvailability: "n2-standard-8",
	},
}

// databaseSize maps sizing tiers to database instance classes.
var databaseSize = map[api.CloudProvider]map[api.SizingTier]string{
	api.ProviderAWS: {
		api.TierMinimal:          "db.t3.micro",
		api.TierStandard:         "db.t3.medium",
		api.TierScaled:           "db.m5.large",
		api.TierHighAvailability: "db.m5.2xlarge",
	},
	api.ProviderAzure: {
		api.TierMinimal:          "B_Standard_B1ms",
		api.TierStandard:         "GP_Standard_D2s_v3",
		api.TierScaled:           "GP_Standard_D4s_v3",
		api.TierHighAvailability: "MO_Standard_E8s_v3",
	},
	api.ProviderGCP: {
		api.TierMinimal:          "db-f1-micro",
		api.TierStandard:         "db-custom-2-4096",
		api.TierScaled:           "db-custom-4-16384",
		api.TierHighAvailability: "db-custom-8-32768",
	},
}

// terraformProviderNames maps providers to required_providers entries.
var terraformProviderNames = map[api.CloudProvider]struct {
	name    string
	source  string
	version string
}{
	api.ProviderAWS:   {name: "aws", source: "hashicorp/aws", version: "~> 5.0"},
	api.ProviderAzure: {name: "azurerm", source: "hashicorp/azurerm", version: "~> 3.0"},
	api.ProviderGCP:   {name: "google", source: "hashicorp/google", version: "~> 5.0"},
}

// tfName converts a node ID to a Terraform identifier.
func tfName(nodeID string) string {
	return strings.ReplaceAll(nodeID, "-", "_")
}

// resourceAddress returns the Terraform address of a node.
func resourceAddress(node api.ResourceNode) string {
	return resourceTypes[node.Provider][node.Kind] + "." + tfName(node.ID)
}

// renderProviderFile emits the terraform block and one provider block per
// provider, in sorted order.
func renderProviderFile(providers []api.CloudProvider) string {
	var b strings.Builder
	b.WriteString("terraform {\n")
	b.WriteString("  required_version = \">= 1.5.0\"\n\n")
	b.WriteString("  required_providers {\n")
	for _, p := range providers {
		meta := terraformProviderNames[p]
		fmt.Fprintf(&b, "    %s = {\n      source  = %q\n      version = %q\n    }\n",
			meta.name, meta.source, meta.version)
	}
	b.WriteString("  }\n")
	b.WriteString("}\n")

	for _, p := range providers {
		meta := terraformProviderNames[p]
		b.WriteString("\n")
		switch p {
		case api.ProviderAWS:
			fmt.Fprintf(&b, "provider %q {\n  region = %q\n}\n", meta.name, defaultRegion[p])
		case api.ProviderAzure:
			fmt.Fprintf(&b, "provider %q {\n  features {}\n}\n", meta.name)
		case api.ProviderGCP:
			fmt.Fprintf(&b, "provider %q {\n  region = %q\n}\n", meta.name, defaultRegion[p])
		}
	}
	return b.String()
}

// renderNetworkFile emits one network definition per provider present.
func renderNetworkFile(providers []api.CloudProvider) string {
	var b strings.Builder
	for i, p := range providers {
		if i > 0 {
			b.WriteString("\n")
		}
		switch p {
		case api.ProviderAWS:
			b.WriteString("resource \"aws_vpc\" \"main\" {\n")
			b.WriteString("  cidr_block = \"10.0.0.0/16\"\n\n")
			b.WriteString("  tags = {\n    Name = \"infra-planner-vpc\"\n  }\n")
			b.WriteString("}\n\n")
			b.WriteString("resource \"aws_subnet\" \"main\" {\n")
			b.WriteString("  vpc_id     = aws_vpc.main.id\n")
			b.WriteString("  cidr_block = \"10.0.1.0/24\"\n")
			b.WriteString("}\n")
		case api.ProviderAzure:
			b.WriteString("resource \"azurerm_resource_group\" \"main\" {\n")
			fmt.Fprintf(&b, "  name     = \"infra-planner\"\n  location = %q\n", defaultRegion[p])
			b.WriteString("}\n\n")
			b.WriteString("resource \"azurerm_virtual_network\" \"main\" {\n")
			b.WriteString("  name                = \"infra-planner-vnet\"\n")
			b.WriteString("  address_space       = [\"10.1.0.0/16\"]\n")
			b.WriteString("  location            = azurerm_resource_group.main.location\n")
			b.WriteString("  resource_group_name = azurerm_resource_group.main.name\n")
			b.WriteString("}\n")
		case api.ProviderGCP:
			b.WriteString("resource \"google_compute_network\" \"main\" {\n")
			b.WriteString("  name                    = \"infra-planner-network\"\n")
			b.WriteString("  auto_create_subnetworks = true\n")
			b.WriteString("}\n")
		}
	}
	return b.String()
}

// renderNode emits one resource block. depAddrs are the Terraform addresses
// of the node's dependency predecessors; generation order guarantees they are
// already defined.
func renderNode(node api.ResourceNode, depAddrs []string) string {
	rtype := resourceTypes[node.Provider][node.Kind]
	name := tfName(node.ID)

	var b strings.Builder
	fmt.Fprintf(&b, "resource %q %q {\n", rtype, name)

	switch node.Kind {
	case api.KindCompute:
		switch node.Provider {
		case api.ProviderAWS:
			fmt.Fprintf(&b, "  instance_type = %q\n", computeSize[node.Provider][node.SizingTier])
			b.WriteString("  ami           = \"ami-0c7217cdde317cfec\"\n")
			b.WriteString("  subnet_id     = aws_subnet.main.id\n")
		case api.ProviderAzure:
			fmt.Fprintf(&b, "  name                = %q\n", node.ID)
			fmt.Fprintf(&b, "  size                = %q\n", computeSize[node.Provider][node.SizingTier])
			b.WriteString("  resource_group_name = azurerm_resource_group.main.name\n")
			b.WriteString("  location            = azurerm_resource_group.main.location\n")
		case api.ProviderGCP:
			fmt.Fprintf(&b, "  name         = %q\n", node.ID)
			fmt.Fprintf(&b, "  machine_type = %q\n", computeSize[node.Provider][node.SizingTier])
			b.WriteString("  zone         = \"us-central1-a\"\n")
		}

	case api.KindDatabase:
		switch node.Provider {
		case api.ProviderAWS:
			b.WriteString("  engine         = \"postgres\"\n")
			fmt.Fprintf(&b, "  instance_class = %q\n", databaseSize[node.Provider][node.SizingTier])
			b.WriteString("  allocated_storage = 20\n")
			if node.SizingTier == api.TierHighAvailability {
				b.WriteString("  multi_az          = true\n")
			}
		case api.ProviderAzure:
			fmt.Fprintf(&b, "  name                = %q\n", node.ID)
			fmt.Fprintf(&b, "  sku_name            = %q\n", databaseSize[node.Provider][node.SizingTier])
			b.WriteString("  resource_group_name = azurerm_resource_group.main.name\n")
			b.WriteString("  location            = azurerm_resource_group.main.location\n")
		case api.ProviderGCP:
			fmt.Fprintf(&b, "  name             = %q\n", node.ID)
			b.WriteString("  database_version = \"POSTGRES_15\"\n")
			fmt.Fprintf(&b, "  settings {\n    tier = %q\n  }\n", databaseSize[node.Provider][node.SizingTier])
		}

	case api.KindLoadBalancer:
		switch node.Provider {
		case api.ProviderAWS:
			fmt.Fprintf(&b, "  name               = %q\n", node.ID)
			b.WriteString("  load_balancer_type = \"application\"\n")
			b.WriteString("  subnets            = [aws_subnet.main.id]\n")
		case api.ProviderAzure:
			fmt.Fprintf(&b, "  name                = %q\n", node.ID)
			b.WriteString("  resource_group_name = azurerm_resource_group.main.name\n")
			b.WriteString("  location            = azurerm_resource_group.main.location\n")
		case api.ProviderGCP:
			fmt.Fprintf(&b, "  name     = %q\n", node.ID)
			b.WriteString("  protocol = \"HTTP\"\n")
		}

	case api.KindCache:
		switch node.Provider {
		case api.ProviderAWS:
			fmt.Fprintf(&b, "  cluster_id = %q\n", node.ID)
			b.WriteString("  engine     = \"redis\"\n")
			fmt.Fprintf(&b, "  node_type  = \"cache.%s\"\n", computeSize[api.ProviderAWS][node.SizingTier])
		case api.ProviderAzure:
			fmt.Fprintf(&b, "  name                = %q\n", node.ID)
			b.WriteString("  resource_group_name = azurerm_resource_group.main.name\n")
			b.WriteString("  location            = azurerm_resource_group.main.location\n")
			b.WriteString("  sku_name            = \"Standard\"\n")
		case api.ProviderGCP:
			fmt.Fprintf(&b, "  name           = %q\n", node.ID)
			b.WriteString("  memory_size_gb = 1\n")
		}

	case api.KindStorage:
		switch node.Provider {
		case api.ProviderAWS:
			fmt.Fprintf(&b, "  bucket = \"infra-planner-%s\"\n", node.ID)
		case api.ProviderAzure:
			fmt.Fprintf(&b, "  name                     = %q\n", tfName(node.ID))
			b.WriteString("  resource_group_name      = azurerm_resource_group.main.name\n")
			b.WriteString("  location                 = azurerm_resource_group.main.location\n")
			b.WriteString("  account_tier             = \"Standard\"\n")
			b.WriteString("  account_replication_type = \"LRS\"\n")
		case api.ProviderGCP:
			fmt.Fprintf(&b, "  name     = \"infra-planner-%s\"\n", node.ID)
			fmt.Fprintf(&b, "  location = %q\n", "US")
		}

	case api.KindQueue:
		switch node.Provider {
		case api.ProviderAWS:
			fmt.Fprintf(&b, "  name = %q\n", node.ID)
		case api.ProviderAzure:
			fmt.Fprintf(&b, "  name         = %q\n", node.ID)
			b.WriteString("  namespace_id = \"/subscriptions/self/resourceGroups/infra-planner/providers/Microsoft.ServiceBus/namespaces/infra-planner\"\n")
		case api.ProviderGCP:
			fmt.Fprintf(&b, "  name = %q\n", node.ID)
		}

	case api.KindGateway:
		switch node.Provider {
		case api.ProviderAWS:
			fmt.Fprintf(&b, "  name          = %q\n", node.ID)
			b.WriteString("  protocol_type = \"HTTP\"\n")
		case api.ProviderAzure:
			fmt.Fprintf(&b, "  name                = %q\n", node.ID)
			b.WriteString("  resource_group_name = azurerm_resource_group.main.name\n")
			b.WriteString("  location            = azurerm_resource_group.main.location\n")
			b.WriteString("  publisher_name      = \"infra-planner\"\n")
			b.WriteString("  publisher_email     = \"ops@example.com\"\n")
			b.WriteString("  sku_name            = \"Consumption_0\"\n")
		case api.ProviderGCP:
			fmt.Fprintf(&b, "  api_id = %q\n", tfName(node.ID))
		}

	case api.KindAuth:
		switch node.Provider {
		case api.ProviderAWS:
			fmt.Fprintf(&b, "  name = %q\n", node.ID)
		case api.ProviderAzure:
			fmt.Fprintf(&b, "  name                = %q\n", tfName(node.ID))
			b.WriteString("  resource_group_name = azurerm_resource_group.main.name\n")
			b.WriteString("  location            = azurerm_resource_group.main.location\n")
			b.WriteString("  tenant_id           = \"00000000-0000-0000-0000-000000000000\"\n")
			b.WriteString("  sku_name            = \"standard\"\n")
		case api.ProviderGCP:
			b.WriteString("  autodelete_anonymous_users = true\n")
		}

	case api.KindCDN:
		switch node.Provider {
		case api.ProviderAWS:
			b.WriteString("  enabled = true\n")
			b.WriteString("  default_cache_behavior {\n")
			b.WriteString("    allowed_methods        = [\"GET\", \"HEAD\"]\n")
			b.WriteString("    cached_methods         = [\"GET\", \"HEAD\"]\n")
			b.WriteString("    target_origin_id       = \"primary\"\n")
			b.WriteString("    viewer_protocol_policy = \"redirect-to-https\"\n")
			b.WriteString("  }\n")
		case api.ProviderAzure:
			fmt.Fprintf(&b, "  name                = %q\n", node.ID)
			b.WriteString("  resource_group_name = azurerm_resource_group.main.name\n")
			b.WriteString("  location            = azurerm_resource_group.main.location\n")
			b.WriteString("  sku                 = \"Standard_Microsoft\"\n")
		case api.ProviderGCP:
			fmt.Fprintf(&b, "  name        = %q\n", node.ID)
			b.WriteString("  enable_cdn  = true\n")
			fmt.Fprintf(&b, "  bucket_name = \"infra-planner-%s-origin\"\n", node.ID)
		}

	case api.KindMonitoring:
		switch node.Provider {
		case api.ProviderAWS:
			fmt.Fprintf(&b, "  dashboard_name = %q\n", node.ID)
			b.WriteString("  dashboard_body = jsonencode({ widgets = [] })\n")
		case api.ProviderAzure:
			fmt.Fprintf(&b, "  name                = %q\n", node.ID)
			b.WriteString("  resource_group_name = azurerm_resource_group.main.name\n")
			fmt.Fprintf(&b, "  short_name          = %q\n", "infraplan")
		case api.ProviderGCP:
			b.WriteString("  dashboard_json = jsonencode({ displayName = \"infra-planner\" })\n")
		}
	}

	fmt.Fprintf(&b, "\n  tags = {\n    SizingTier = %q\n", node.SizingTier.String())
	if node.Role != "" {
		fmt.Fprintf(&b, "    Role       = %q\n", string(node.Role))
	}
	b.WriteString("  }\n")

	if len(depAddrs) > 0 {
		b.WriteString("\n  depends_on = [\n")
		for _, addr := range depAddrs {
			fmt.Fprintf(&b, "    %s,\n", addr)
		}
		b.WriteString("  ]\n")
	}

	b.WriteString("}\n")
	return b.String()
}

// renderOutputs emits one output per node plus a cost summary, in generation
// order.
func renderOutputs(topo *api.ResourceTopology, order []string) string {
	var b strings.Builder
	for i, id := range order {
		if i > 0 {
			b.WriteString("\n")
		}
		node := topo.Nodes[id]
		fmt.Fprintf(&b, "output %q {\n", tfName(id)+"_id")
		fmt.Fprintf(&b, "  description = \"%s (%s tier, est. $%s/mo)\"\n",
			node.Kind, node.SizingTier, node.MonthlyCost.StringFixed(2))
		fmt.Fprintf(&b, "  value       = %s.id\n", resourceAddress(node))
		b.WriteString("}\n")
	}
	return b.String()
}
