package api

import "fmt"

// ParseCloudProvider converts a string to a CloudProvider.
func ParseCloudProvider(s string) (CloudProvider, error) {
	switch CloudProvider(s) {
	case ProviderAWS, ProviderAzure, ProviderGCP, ProviderMultiCloud, ProviderUnspecified:
		return CloudProvider(s), nil
	}
	return ProviderUnspecified, fmt.Errorf("unknown cloud provider: %q", s)
}

// ParseResourceKind converts a string to a ResourceKind.
func ParseResourceKind(s string) (ResourceKind, error) {
	switch ResourceKind(s) {
	case KindCompute, KindDatabase, KindLoadBalancer, KindCache, KindStorage,
		KindQueue, KindGateway, KindAuth, KindCDN, KindMonitoring:
		return ResourceKind(s), nil
	}
	return "", fmt.Errorf("unknown resource kind: %q", s)
}

// ParseSizingTier converts a tier name to a SizingTier.
func ParseSizingTier(s string) (SizingTier, error) {
	switch s {
	case "minimal":
		return TierMinimal, nil
	case "standard":
		return TierStandard, nil
	case "scaled":
		return TierScaled, nil
	case "high-availability":
		return TierHighAvailability, nil
	}
	return 0, fmt.Errorf("unknown sizing tier: %q", s)
}
